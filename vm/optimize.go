package vm

import (
	"strings"
)

// Optimize flattens nested blocks, fuses constant output into [Write] and,
// for any non-zero mode, folds operators applied to constants.
func (i Block) Optimize(mode int) Instruction {
	out := make([]Instruction, 0, len(i.Items))

	var add func(Instruction)

	add = func(it Instruction) {
		it = it.Optimize(mode)

		if b, ok := it.(Block); ok {
			for _, sub := range b.Items {
				add(sub)
			}

			return
		}

		out = append(out, it)
		out = fuse(out, mode)
	}

	for _, it := range i.Items {
		add(it)
	}

	return Block{Items: out, Source: i.strip(mode)}
}

// fuse rewrites the tail of seq after an instruction was appended.
func fuse(seq []Instruction, mode int) []Instruction {
	n := len(seq)

	switch last := seq[n-1].(type) {
	case Echo:
		if p, ok := constantPush(seq, n-2); ok {
			return fuse(append(seq[:n-2], Write{Text: string(p), Source: last.Source}), mode)
		}

	case Write:
		if last.Text == "" {
			return seq[:n-1]
		}

		if n >= 2 {
			if prev, ok := seq[n-2].(Write); ok {
				return append(seq[:n-2], Write{Text: prev.Text + last.Text, Source: prev.Source})
			}
		}

	case Apply:
		if mode == 0 || !last.Op.Pure() || last.Arity < 0 || n-1 < last.Arity {
			break
		}

		args := make([]Value, last.Arity)
		for k := range args {
			c, ok := constantPush(seq, n-1-last.Arity+k)
			if !ok {
				return seq
			}

			args[k] = c
		}

		s, err := Lazy{Op: last.Op, Operands: args}.Eval(NewMemory())
		if err != nil {
			return seq
		}

		folded := Push{Value: Constant(s), Source: last.Source}

		return append(seq[:n-1-last.Arity], folded)
	}

	return seq
}

func constantPush(seq []Instruction, at int) (Constant, bool) {
	if at < 0 {
		return "", false
	}

	p, ok := seq[at].(Push)
	if !ok {
		return "", false
	}

	c, ok := p.Value.(Constant)

	return c, ok
}

// Listing renders an instruction graph one instruction per line, indenting
// the bodies of blocks and loops.
func Listing(inst Instruction) string {
	var sb strings.Builder

	var walk func(Instruction, int)

	walk = func(it Instruction, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(it.String())

		if n := it.Origin(); n.Valid() {
			sb.WriteString("  ; ")
			sb.WriteString(n.String())
		}

		sb.WriteByte('\n')

		switch t := it.(type) {
		case Block:
			for _, sub := range t.Items {
				walk(sub, depth+1)
			}
		case Repeat:
			walk(t.Body, depth+1)
		case Gather:
			walk(t.Body, depth+1)
		}
	}

	walk(inst, 0)

	return sb.String()
}
