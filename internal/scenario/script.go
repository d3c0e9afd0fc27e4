package scenario

import (
	"os"

	"github.com/dop251/goja"
	"github.com/shopspring/decimal"

	"github.com/quantfabric/meridian/errs"
)

// Parameter keys populated by scripted shifts.
const (
	ParamShiftType = "shift_type"
	ParamAmount    = "amount"
)

// LoadDefinitionFromScript evaluates a scenario script in an isolated VM and
// returns the definition it builds. Scripts drive a global `scenario` object:
//
//	scenario.name("usd-parallel-up");
//	scenario.shiftCurve("Discounting", "USD", "Absolute", 0.005);
//	scenario.shiftCurve("Forward3M", "USD", "Relative", 0.10);
//
// Each shiftCurve call registers one distinct curve selector; registration
// order is the composite tie-break order.
func LoadDefinitionFromScript(name, src string) (*Definition, error) {
	program, err := goja.Compile(name, src, true)
	if err != nil {
		return nil, errs.New("scenario/script", errs.CodeConfig,
			errs.WithMessage("compile scenario script"),
			errs.WithField("scenario", name), errs.WithCause(err))
	}

	builder := &scriptBuilder{name: name, entries: nil, failure: nil}
	rt := goja.New()
	obj := rt.NewObject()
	if err := obj.Set("name", builder.setName); err != nil {
		return nil, scriptSetupError(name, err)
	}
	if err := obj.Set("shiftCurve", builder.shiftCurve); err != nil {
		return nil, scriptSetupError(name, err)
	}
	if err := rt.Set("scenario", obj); err != nil {
		return nil, scriptSetupError(name, err)
	}

	if _, err := rt.RunProgram(program); err != nil {
		return nil, errs.New("scenario/script", errs.CodeConfig,
			errs.WithMessage("execute scenario script"),
			errs.WithField("scenario", name), errs.WithCause(err))
	}
	if builder.failure != nil {
		return nil, builder.failure
	}
	if len(builder.entries) == 0 {
		return nil, errs.New("scenario/script", errs.CodeConfig,
			errs.WithMessage("scenario script defined no selections"),
			errs.WithField("scenario", name))
	}
	return NewDefinition(builder.name, builder.entries...), nil
}

// LoadDefinitionFromFile reads and evaluates a scenario script file.
func LoadDefinitionFromFile(name, path string) (*Definition, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New("scenario/script", errs.CodeConfig,
			errs.WithMessage("read scenario script"),
			errs.WithField("path", path), errs.WithCause(err))
	}
	return LoadDefinitionFromScript(name, string(src))
}

type scriptBuilder struct {
	name    string
	entries []DefinitionEntry
	failure *errs.E
}

func (b *scriptBuilder) setName(name string) {
	if name != "" {
		b.name = name
	}
}

func (b *scriptBuilder) shiftCurve(curveName, currency, shiftType string, amount float64) {
	if b.failure != nil {
		return
	}
	st := ShiftType(shiftType)
	if st != ShiftAbsolute && st != ShiftRelative {
		b.failure = errs.New("scenario/script", errs.CodeConfig,
			errs.WithMessage("unknown shift type"),
			errs.WithField("scenario", b.name),
			errs.WithField("shift_type", shiftType))
		return
	}
	b.entries = append(b.entries, DefinitionEntry{
		Selector: NewCurveSelector(currency, curveName),
		Params: Parameters{
			ParamShiftType: st,
			ParamAmount:    decimal.NewFromFloat(amount),
		},
	})
}

func scriptSetupError(name string, err error) error {
	return errs.New("scenario/script", errs.CodeConfig,
		errs.WithMessage("initialise script runtime"),
		errs.WithField("scenario", name), errs.WithCause(err))
}
