// Package bootstrap implementa el alta de empresa: empresa, sucursal principal, rol de
// administrador, logo y actualización de la sesión, como una lista explícita de pasos.
package bootstrap

import (
	"context"
	"errors"

	"github.com/jhoicas/Wasper-api/pkg/logger"
)

// Outcome resultado de un paso.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeTerminalFailure Outcome = "terminal-failure" // aborta el alta
	OutcomeLoggedFailure   Outcome = "logged-failure"   // se registra y el alta continúa
	OutcomeSkipped         Outcome = "skipped"
)

// StepResult resultado de un paso ejecutado.
type StepResult struct {
	Step    string
	Outcome Outcome
	Err     error
}

// StepObserver recibe el resultado de cada paso (métricas).
type StepObserver interface {
	ObserveStep(step string, outcome Outcome)
}

type nopObserver struct{}

func (nopObserver) ObserveStep(string, Outcome) {}

// errSkipped lo devuelve un paso que no aplica (p. ej. sin logo).
var errSkipped = errors.New("paso omitido")

// step un paso del alta. Con terminal = true un error aborta la ejecución.
type step struct {
	name     string
	terminal bool
	run      func(ctx context.Context, st *state) error
}

// Runner ejecuta los pasos estrictamente en orden; ningún paso arranca antes de que
// termine el anterior.
type Runner struct {
	steps    []step
	log      *logger.Logger
	observer StepObserver
}

// newRunner construye el runner. log y observer pueden ser nil.
func newRunner(steps []step, log *logger.Logger, observer StepObserver) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Runner{steps: steps, log: log, observer: observer}
}

// Run ejecuta los pasos y devuelve sus resultados. Con un fallo terminal devuelve el error
// del paso y los resultados hasta ese punto.
func (r *Runner) Run(ctx context.Context, st *state) ([]StepResult, error) {
	results := make([]StepResult, 0, len(r.steps))
	for _, s := range r.steps {
		err := s.run(ctx, st)
		res := StepResult{Step: s.name, Outcome: OutcomeSuccess}
		switch {
		case errors.Is(err, errSkipped):
			res.Outcome = OutcomeSkipped
		case err != nil && s.terminal:
			res.Outcome, res.Err = OutcomeTerminalFailure, err
		case err != nil:
			res.Outcome, res.Err = OutcomeLoggedFailure, err
		}
		results = append(results, res)
		r.observer.ObserveStep(s.name, res.Outcome)

		switch res.Outcome {
		case OutcomeTerminalFailure:
			r.log.Error().Err(err).
				Str("step", s.name).
				Str("user_id", st.userID).
				Str("company_id", st.companyID()).
				Msg("alta de empresa abortada")
			return results, err
		case OutcomeLoggedFailure:
			r.log.Error().Err(err).
				Str("step", s.name).
				Str("user_id", st.userID).
				Str("company_id", st.companyID()).
				Msg("paso del alta falló, se continúa")
		default:
			r.log.Debug().Str("step", s.name).Str("outcome", string(res.Outcome)).Msg("paso del alta")
		}
	}
	return results, nil
}
