package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/cwbudde/algo-series/preset"
	"github.com/cwbudde/algo-series/series"
)

// synth is what the REPL drives. synthReader implements it.
type synth interface {
	Send(ev series.Event) bool
	SetParams(p *series.Params)
	Params() series.Params
	ActiveVoices() int
}

type command struct {
	name  string
	usage string
	run   func(s synth, args []string) (string, error)
	arity int // -n means len(args) must be >= n
}

var commands []command

func init() {
	commands = []command{
		{"on", "on <note> [velocity 0-127]", noteOnCommand, -1},
		{"off", "off <note>", noteOffCommand, 1},
		{"pressure", "pressure <note> <0-127>", pressureCommand, 2},
		{"set", "set <field> <value>   (preset JSON field names)", setCommand, 2},
		{"harmonic", "harmonic <1-31> <-1..1>", harmonicCommand, 2},
		{"load", "load <preset.json>", loadCommand, 1},
		{"save", "save <preset.json>", saveCommand, 1},
		{"show", "show", showCommand, 0},
		{"panic", "panic", panicCommand, 0},
		{"help", "help", helpCommand, 0},
	}
}

func eval(s synth, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		if cmd.arity >= 0 && len(args) != cmd.arity || cmd.arity < 0 && len(args) < -cmd.arity {
			return "", fmt.Errorf("usage: %s", cmd.usage)
		}
		result, err := cmd.run(s, args)
		if err != nil {
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return "", fmt.Errorf("unknown command: %s (try help)", name)
}

func repl(s synth) error {
	rl, err := readline.New("series> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		switch strings.TrimSpace(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		}
		if result, err := eval(s, line); err != nil {
			fmt.Println(err)
		} else if result != "" {
			fmt.Println(result)
		}
	}
}

func parseNote(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > series.MaxNote {
		return 0, fmt.Errorf("invalid note %q (expected 0..%d)", raw, series.MaxNote)
	}
	return n, nil
}

func parseMIDIValue(raw string) (float32, error) {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 || v > 127 {
		return 0, fmt.Errorf("invalid value %q (expected 0..127)", raw)
	}
	return float32(v) / 127, nil
}

func send(s synth, ev series.Event) (string, error) {
	if !s.Send(ev) {
		return "", fmt.Errorf("event queue full")
	}
	return "", nil
}

func noteOnCommand(s synth, args []string) (string, error) {
	note, err := parseNote(args[0])
	if err != nil {
		return "", err
	}
	vel := float32(100.0 / 127)
	if len(args) > 1 {
		if vel, err = parseMIDIValue(args[1]); err != nil {
			return "", err
		}
	}
	return send(s, series.NoteOnAt(0, note, vel))
}

func noteOffCommand(s synth, args []string) (string, error) {
	note, err := parseNote(args[0])
	if err != nil {
		return "", err
	}
	return send(s, series.NoteOffAt(0, note))
}

func pressureCommand(s synth, args []string) (string, error) {
	note, err := parseNote(args[0])
	if err != nil {
		return "", err
	}
	v, err := parseMIDIValue(args[1])
	if err != nil {
		return "", err
	}
	return send(s, series.PolyPressureAt(0, note, v))
}

// setCommand routes a single field through the preset schema so the REPL
// accepts exactly the names and ranges a preset file does.
func setCommand(s synth, args []string) (string, error) {
	f, err := decodeField(args[0], args[1])
	if err != nil {
		// Enum fields such as amp_width "1" are strings in the schema.
		if f, err = decodeField(args[0], strconv.Quote(args[1])); err != nil {
			return "", err
		}
	}
	p := s.Params()
	if err := preset.ApplyFile(&p, f); err != nil {
		return "", err
	}
	s.SetParams(&p)
	return "", nil
}

func decodeField(name, raw string) (*preset.File, error) {
	var f preset.File
	doc := fmt.Sprintf(`{%s: %s}`, strconv.Quote(name), raw)
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

func harmonicCommand(s synth, args []string) (string, error) {
	v, err := strconv.ParseFloat(args[1], 32)
	if err != nil {
		return "", fmt.Errorf("invalid coefficient %q", args[1])
	}
	p := s.Params()
	f := preset.File{Harmonics: map[string]float32{args[0]: float32(v)}}
	if err := preset.ApplyFile(&p, &f); err != nil {
		return "", err
	}
	s.SetParams(&p)
	return "", nil
}

func loadCommand(s synth, args []string) (string, error) {
	p, err := preset.LoadJSON(args[0])
	if err != nil {
		return "", err
	}
	s.SetParams(p)
	return fmt.Sprintf("loaded %s", args[0]), nil
}

func saveCommand(s synth, args []string) (string, error) {
	p := s.Params()
	if err := preset.SaveJSON(args[0], &p); err != nil {
		return "", err
	}
	return fmt.Sprintf("saved %s", args[0]), nil
}

func showCommand(s synth, args []string) (string, error) {
	p := s.Params()
	b, err := json.MarshalIndent(preset.FromParams(&p), "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\nactive voices: %d", b, s.ActiveVoices()), nil
}

func panicCommand(s synth, args []string) (string, error) {
	for n := 0; n <= series.MaxNote; n++ {
		if _, err := send(s, series.NoteOffAt(0, n)); err != nil {
			return "", err
		}
	}
	return "all notes off", nil
}

func helpCommand(s synth, args []string) (string, error) {
	var b strings.Builder
	for _, cmd := range commands {
		fmt.Fprintf(&b, "  %s\n", cmd.usage)
	}
	b.WriteString("  quit")
	return b.String(), nil
}
