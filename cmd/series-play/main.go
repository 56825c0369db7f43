package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"
	"gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-series/midifile"
	"github.com/cwbudde/algo-series/preset"
	"github.com/cwbudde/algo-series/series"
)

func main() {
	sampleRate := flag.Int("sample-rate", 48000, "Output sample rate in Hz")
	channels := flag.Int("channels", 2, "Number of output channels")
	maxVoices := flag.Int("voices", series.DefaultMaxVoices, "Voice arena capacity")
	presetPath := flag.String("preset", "", "Preset JSON file path (defaults when empty)")
	midiPath := flag.String("midi", "", "Play a Standard MIDI File and exit")
	midiIn := flag.Int("midi-in", -1, "Listen to this MIDI input port (-1 = none)")
	listPorts := flag.Bool("list-ports", false, "List MIDI input ports and exit")
	bufferMs := flag.Int("buffer-ms", 20, "Device buffer size in milliseconds")
	flag.Parse()

	if *listPorts {
		for i, in := range midi.GetInPorts() {
			fmt.Printf("%d: %s\n", i, in)
		}
		return
	}
	if *channels < 1 || *sampleRate <= 0 {
		die("channels and sample-rate must be positive")
	}

	params := series.NewDefaultParams()
	if *presetPath != "" {
		p, err := preset.LoadJSON(*presetPath)
		if err != nil {
			die("Error loading preset %q: %v", *presetPath, err)
		}
		params = p
	}

	reader := newSynthReader(float32(*sampleRate), *channels, *maxVoices, params)
	if *midiPath != "" {
		sched, err := midifile.Load(*midiPath, *sampleRate)
		if err != nil {
			die("Error loading MIDI: %v", err)
		}
		reader.cursor = midifile.NewCursor(sched)
		fmt.Printf("Playing %s (%d events, %.2fs)\n", *midiPath, len(sched.Events), sched.Duration().Seconds())
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   *sampleRate,
		ChannelCount: *channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(*bufferMs) * time.Millisecond,
	})
	if err != nil {
		die("Error opening audio device: %v", err)
	}
	<-ready

	player := ctx.NewPlayer(reader)
	player.Play()
	defer player.Close()

	if *midiIn >= 0 {
		stop, err := listenMIDI(*midiIn, reader)
		if err != nil {
			die("Error opening MIDI input %d: %v", *midiIn, err)
		}
		defer stop()
	}

	if *midiPath != "" {
		waitForCursor(reader)
		return
	}
	if err := repl(reader); err != nil {
		die("REPL error: %v", err)
	}
}

func listenMIDI(port int, r *synthReader) (func(), error) {
	in, err := midi.InPort(port)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Listening on %s\n", in)
	return midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		if ev, ok := series.EventFromMIDI(msg, 0); ok {
			r.Send(ev)
		}
	})
}

// waitForCursor blocks until the file has been played and every voice has
// finished its release.
func waitForCursor(r *synthReader) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		if r.cursorDone() && r.ActiveVoices() == 0 {
			return
		}
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
