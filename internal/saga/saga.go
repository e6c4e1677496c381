package saga

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Step is a single unit of a saga with its compensating action. Compensate
// may be nil when the step has nothing to undo.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga runs steps in order and compensates executed steps in reverse order
// when a later step fails.
type Saga struct {
	name   string
	steps  []Step
	logger *zap.Logger
}

// New creates a saga orchestrator.
func New(name string, logger *zap.Logger) *Saga {
	return &Saga{name: name, logger: logger}
}

// AddStep appends a step to the saga.
func (s *Saga) AddStep(step Step) {
	s.steps = append(s.steps, step)
}

// Execute runs the saga. Compensation errors are logged, not returned; the
// original step failure is what the caller sees.
func (s *Saga) Execute(ctx context.Context) error {
	s.logger.Info("saga started", zap.String("saga", s.name))

	done := make([]Step, 0, len(s.steps))
	for _, step := range s.steps {
		s.logger.Info("executing saga step",
			zap.String("saga", s.name),
			zap.String("step", step.Name),
		)

		if err := step.Execute(ctx); err != nil {
			s.logger.Error("saga step failed, compensating",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			for i := len(done) - 1; i >= 0; i-- {
				if done[i].Compensate == nil {
					continue
				}
				s.logger.Info("compensating saga step",
					zap.String("saga", s.name),
					zap.String("step", done[i].Name),
				)
				if compErr := done[i].Compensate(ctx); compErr != nil {
					s.logger.Error("compensation failed",
						zap.String("saga", s.name),
						zap.String("step", done[i].Name),
						zap.Error(compErr),
					)
				}
			}
			return fmt.Errorf("saga %q failed at step %q: %w", s.name, step.Name, err)
		}

		done = append(done, step)
	}

	s.logger.Info("saga completed", zap.String("saga", s.name))
	return nil
}
