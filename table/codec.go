package table

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dhamidi/forkparse/grammar"
	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"
)

// ErrBadTable is matched by errors from Decode for inputs that are not a
// valid encoded table.
var ErrBadTable = errors.New("bad table encoding")

const magic = "FPT1"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type wireTable struct {
	Fingerprint string     `json:"fingerprint"`
	Start       string     `json:"start"`
	Terminals   []string   `json:"terminals"`
	Rules       []wireRule `json:"rules"`
	Rows        []wireRow  `json:"rows"`
}

type wireRule struct {
	ID  int    `json:"id"`
	LHS string `json:"lhs"`
	Len int    `json:"len"`
}

type wireRow struct {
	ID      int         `json:"id"`
	Entries []wireEntry `json:"entries"`
}

type wireEntry struct {
	Kind    string       `json:"kind"`
	Name    string       `json:"name,omitempty"`
	Actions []wireAction `json:"actions"`
}

type wireAction struct {
	Op     string `json:"op"`
	Target int    `json:"target"`
}

var kindNames = map[grammar.SymbolKind]string{
	grammar.Terminal:    "term",
	grammar.Nonterminal: "nonterm",
	grammar.Dot:         "any",
}

// Encode writes t to w. Equal tables encode to equal bytes.
func Encode(w io.Writer, t *Table) error {
	wt := wireTable{
		Fingerprint: strconv.FormatUint(t.Fingerprint, 16),
		Start:       t.Start,
		Terminals:   t.Terminals,
	}
	for _, r := range t.Rules {
		wt.Rules = append(wt.Rules, wireRule(r))
	}
	for _, row := range t.Rows {
		wr := wireRow{ID: row.ID}
		for _, k := range row.keys {
			we := wireEntry{Kind: kindNames[k.Kind], Name: k.Name}
			for _, a := range row.actions[k] {
				we.Actions = append(we.Actions, wireAction{Op: a.Op.String(), Target: a.Target})
			}
			wr.Entries = append(wr.Entries, we)
		}
		wt.Rows = append(wt.Rows, wr)
	}

	data, err := json.Marshal(&wt)
	if err != nil {
		return fmt.Errorf("marshal table: %w", err)
	}

	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return fmt.Errorf("write table: %w", err)
	}
	return zw.Close()
}

// Decode reads a table written by Encode.
func Decode(r io.Reader) (*Table, error) {
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrBadTable, err)
	}
	if string(head) != magic {
		return nil, fmt.Errorf("%w: unknown header %q", ErrBadTable, head)
	}

	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTable, err)
	}

	var wt wireTable
	if err := json.Unmarshal(data, &wt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTable, err)
	}
	return fromWire(&wt)
}

func fromWire(wt *wireTable) (*Table, error) {
	fp, err := strconv.ParseUint(wt.Fingerprint, 16, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: fingerprint: %v", ErrBadTable, err)
	}

	t := &Table{
		Fingerprint: fp,
		Start:       wt.Start,
		Terminals:   wt.Terminals,
	}
	for i, r := range wt.Rules {
		if r.ID != i || r.Len < 0 {
			return nil, fmt.Errorf("%w: rule %d out of order", ErrBadTable, r.ID)
		}
		t.Rules = append(t.Rules, RuleInfo(r))
	}

	kinds := make(map[string]grammar.SymbolKind, len(kindNames))
	for k, name := range kindNames {
		kinds[name] = k
	}
	ops := make(map[string]Op, len(opNames))
	for i, name := range opNames {
		ops[name] = Op(i)
	}

	for i, wr := range wt.Rows {
		if wr.ID != i {
			return nil, fmt.Errorf("%w: row %d out of order", ErrBadTable, wr.ID)
		}
		row := newRow(i, nil)
		for _, we := range wr.Entries {
			kind, ok := kinds[we.Kind]
			if !ok {
				return nil, fmt.Errorf("%w: row %d: unknown key kind %q", ErrBadTable, i, we.Kind)
			}
			key := Key{Kind: kind, Name: we.Name}
			for _, wa := range we.Actions {
				op, ok := ops[wa.Op]
				if !ok {
					return nil, fmt.Errorf("%w: row %d: unknown action %q", ErrBadTable, i, wa.Op)
				}
				a := Action{Op: op, Target: wa.Target}
				if err := checkTarget(a, len(wt.Rows), len(t.Rules)); err != nil {
					return nil, fmt.Errorf("%w: row %d: %v", ErrBadTable, i, err)
				}
				row.On(key, a)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("%w: no states", ErrBadTable)
	}
	return t, nil
}

func checkTarget(a Action, states, rules int) error {
	switch a.Op {
	case Shift, GoTo:
		if a.Target < 0 || a.Target >= states {
			return fmt.Errorf("%s to unknown state", a)
		}
	case Reduce:
		if a.Target <= 0 || a.Target >= rules {
			return fmt.Errorf("%s of unknown rule", a)
		}
	}
	return nil
}
