package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/clasp/pkg/snap"
	"github.com/chazu/clasp/pkg/unit"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// kwPrefix marks keyword string literals produced by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites recipe source into plain zygomys:
//
//  1. :keyword -> "__kw_keyword" string literals, so keywords need no
//     global symbol registration.
//  2. kebab-case identifiers -> underscore form (zygomys reads a bare
//     hyphen as subtraction).
//  3. ; line comments -> // (zygomys has no Lisp-style comments).
//
// String literal boundaries are respected throughout.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)
	b := []byte(source)

	for i := 0; i < len(b); {
		switch {
		case b[i] == '"' || b[i] == '`':
			quote := b[i]
			out.WriteByte(b[i])
			i++
			for i < len(b) && b[i] != quote {
				if quote == '"' && b[i] == '\\' && i+1 < len(b) {
					out.WriteByte(b[i])
					i++
				}
				out.WriteByte(b[i])
				i++
			}
			if i < len(b) {
				out.WriteByte(b[i])
				i++
			}

		case b[i] == ';':
			out.WriteString("//")
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				out.WriteByte(b[i])
				i++
			}

		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			out.WriteString(":=")
			i += 2

		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			fmt.Fprintf(&out, "%q", kwPrefix+string(b[i+1:j]))
			i = j

		case b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out.WriteByte('_')
			i++

		default:
			out.WriteByte(b[i])
			i++
		}
	}
	return out.String()
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Sexp wrappers for typed quantities
// ---------------------------------------------------------------------------

// sexpLength carries a unit.Length through the environment so recipes
// never pass bare numbers as dimensions.
type sexpLength struct {
	l unit.Length
}

func (s *sexpLength) SexpString(*zygo.PrintState) string {
	return fmt.Sprintf("(mm %g)", s.l.Millimetres())
}
func (s *sexpLength) Type() *zygo.RegisteredType { return nil }

// sexpAngle carries a unit.Angle.
type sexpAngle struct {
	a unit.Angle
}

func (s *sexpAngle) SexpString(*zygo.PrintState) string {
	return fmt.Sprintf("(deg %g)", s.a.Degrees())
}
func (s *sexpAngle) Type() *zygo.RegisteredType { return nil }

// sexpParams carries a full parameter set from the *-snap constructors
// to snap-fit.
type sexpParams struct {
	p snap.Parameters
}

func (s *sexpParams) SexpString(*zygo.PrintState) string {
	return fmt.Sprintf("(%s-snap)", s.p.Kind)
}
func (s *sexpParams) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW reports whether a Sexp is a preprocessed keyword string,
// returning the bare keyword name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds a parsed keyword argument list.
type kwArgs map[string]zygo.Sexp

// parseArgs collects :keyword value pairs. Positional arguments are not
// used by any clasp builtin and are rejected.
func parseArgs(name string, args []zygo.Sexp) (kwArgs, error) {
	kw := make(kwArgs)
	for i := 0; i < len(args); {
		key, ok := isKW(args[i])
		if !ok {
			return nil, fmt.Errorf("%s: expected :keyword, got %s", name, args[i].SexpString(nil))
		}
		if i+1 >= len(args) {
			return nil, fmt.Errorf("%s: keyword :%s has no value", name, key)
		}
		kw[key] = args[i+1]
		i += 2
	}
	return kw, nil
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected bool, got %T (%s)", s, s.SexpString(nil))
}

// toLength extracts a unit.Length; dimensions must be built with mm,
// cm or inch, never written as bare numbers.
func toLength(s zygo.Sexp) (unit.Length, error) {
	if l, ok := s.(*sexpLength); ok {
		return l.l, nil
	}
	return 0, fmt.Errorf("expected a length such as (mm 5), got %T (%s)", s, s.SexpString(nil))
}

// toAngle extracts a unit.Angle built with deg or rad.
func toAngle(s zygo.Sexp) (unit.Angle, error) {
	if a, ok := s.(*sexpAngle); ok {
		return a.a, nil
	}
	return 0, fmt.Errorf("expected an angle such as (deg 30), got %T (%s)", s, s.SexpString(nil))
}

// setLength assigns kw[key] to *dst when the keyword is present.
func setLength(kw kwArgs, name, key string, dst *unit.Length) error {
	v, ok := kw[key]
	if !ok {
		return nil
	}
	l, err := toLength(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", name, key, err)
	}
	*dst = l
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the clasp recipe builtins into a zygomys
// environment. Builtins append placements to the provided recipe as
// the source evaluates. Source must be preprocessed first so keywords
// and kebab-case names are recognizable.
func registerBuiltins(env *zygo.Zlisp, recipe *Recipe) {

	// Unit constructors: (mm 5) (cm 1.2) (inch 0.25) (deg 30) (rad 0.5)
	unitFn := func(build func(float64) zygo.Sexp) zygo.ZlispUserFunction {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s: want 1 numeric argument, got %d", name, len(args))
			}
			f, err := toFloat64(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return build(f), nil
		}
	}
	env.AddFunction("mm", unitFn(func(f float64) zygo.Sexp { return &sexpLength{l: unit.Millimetres(f)} }))
	env.AddFunction("cm", unitFn(func(f float64) zygo.Sexp { return &sexpLength{l: unit.Centimetres(f)} }))
	env.AddFunction("inch", unitFn(func(f float64) zygo.Sexp { return &sexpLength{l: unit.Inches(f)} }))
	env.AddFunction("deg", unitFn(func(f float64) zygo.Sexp { return &sexpAngle{a: unit.Degrees(f)} }))
	env.AddFunction("rad", unitFn(func(f float64) zygo.Sexp { return &sexpAngle{a: unit.Radians(f)} }))

	// -----------------------------------------------------------------------
	// (cantilever-snap :beam-length (mm 12) :beam-width (mm 5)
	//                  :beam-thickness (mm 2) :snap-depth (mm 1)
	//                  :clearance (mm 0.1) :overhang (deg 30)
	//                  :offset (mm 0))
	// -----------------------------------------------------------------------
	env.AddFunction("cantilever_snap", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		kw, err := parseArgs("cantilever-snap", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		p := snap.DefaultFor(snap.Cantilever)
		if err := commonParams(kw, "cantilever-snap", &p); err != nil {
			return zygo.SexpNull, err
		}
		for key, dst := range map[string]*unit.Length{
			"beam-length":    &p.Cantilever.BeamLength,
			"beam-width":     &p.Cantilever.BeamWidth,
			"beam-thickness": &p.Cantilever.BeamThickness,
		} {
			if err := setLength(kw, "cantilever-snap", key, dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		if err := p.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("cantilever-snap: %w", err)
		}
		return &sexpParams{p: p}, nil
	})

	// -----------------------------------------------------------------------
	// (cylindrical-snap :diameter (mm 6) :post-height (mm 8)
	//                   :ring-height (mm 6) :ring-thickness (mm 1.5)
	//                   :snap-depth (mm 1) :clearance (mm 0.1)
	//                   :overhang (deg 30) :offset (mm 0))
	// -----------------------------------------------------------------------
	env.AddFunction("cylindrical_snap", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		kw, err := parseArgs("cylindrical-snap", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		p := snap.DefaultFor(snap.Cylindrical)
		if err := commonParams(kw, "cylindrical-snap", &p); err != nil {
			return zygo.SexpNull, err
		}
		for key, dst := range map[string]*unit.Length{
			"diameter":       &p.Cylindrical.CylinderDiameter,
			"post-height":    &p.Cylindrical.PostHeight,
			"ring-height":    &p.Cylindrical.RingHeight,
			"ring-thickness": &p.Cylindrical.RingThickness,
		} {
			if err := setLength(kw, "cylindrical-snap", key, dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		if err := p.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("cylindrical-snap: %w", err)
		}
		return &sexpParams{p: p}, nil
	})

	// -----------------------------------------------------------------------
	// (snap-fit :male "bracket" :female "housing" :params p
	//           :fillets true :fillet-radius (mm 0.5)
	//           :draft true :draft-angle (deg 2))
	// -----------------------------------------------------------------------
	env.AddFunction("snap_fit", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		kw, err := parseArgs("snap-fit", args)
		if err != nil {
			return zygo.SexpNull, err
		}

		pl := Placement{Params: snap.DefaultFor(snap.Cantilever)}

		v, ok := kw["male"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("snap-fit: :male selection is required")
		}
		if pl.MaleQuery, err = toString(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("snap-fit: male: %w", err)
		}
		v, ok = kw["female"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("snap-fit: :female selection is required")
		}
		if pl.FemaleQuery, err = toString(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("snap-fit: female: %w", err)
		}
		if v, ok := kw["params"]; ok {
			sp, ok := v.(*sexpParams)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("snap-fit: params: expected a *-snap parameter set, got %T", v)
			}
			pl.Params = sp.p
		}
		if v, ok := kw["fillets"]; ok {
			if pl.Options.AddFillets, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("snap-fit: fillets: %w", err)
			}
		}
		if v, ok := kw["fillet-radius"]; ok {
			if pl.Options.FilletRadius, err = toLength(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("snap-fit: fillet-radius: %w", err)
			}
		}
		if v, ok := kw["draft"]; ok {
			if pl.Options.AddDraftAngles, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("snap-fit: draft: %w", err)
			}
		}
		if v, ok := kw["draft-angle"]; ok {
			if pl.Options.DraftAngle, err = toAngle(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("snap-fit: draft-angle: %w", err)
			}
		}

		recipe.Placements = append(recipe.Placements, pl)
		return zygo.SexpNull, nil
	})
}

// commonParams applies the keyword arguments shared by both snap kinds.
func commonParams(kw kwArgs, name string, p *snap.Parameters) error {
	for key, dst := range map[string]*unit.Length{
		"snap-depth": &p.SnapDepth,
		"clearance":  &p.Clearance,
		"offset":     &p.PositionOffset,
	} {
		if err := setLength(kw, name, key, dst); err != nil {
			return err
		}
	}
	if v, ok := kw["overhang"]; ok {
		a, err := toAngle(v)
		if err != nil {
			return fmt.Errorf("%s: overhang: %w", name, err)
		}
		p.OverhangAngle = a
	}
	return nil
}
