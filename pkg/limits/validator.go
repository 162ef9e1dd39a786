package limits

import (
	"fmt"
	"math"

	"github.com/MMintLab/libfranka/pkg/protocol"
)

// Violation identifies the first field/axis pair of a command that broke a
// bound. It implements error so it can travel up through the control loop.
type Violation struct {
	Field string  // e.g. "joint_position", "torque_rate"
	Axis  int     // joint index or Cartesian axis, -1 when not axis-specific
	Value float64 // offending value (for rate checks: the per-cycle delta)
	Bound float64 // the bound that was exceeded
}

func (v *Violation) Error() string {
	if v.Axis < 0 {
		return fmt.Sprintf("limits: %s %.4f exceeds bound %.4f", v.Field, v.Value, v.Bound)
	}
	return fmt.Sprintf("limits: %s axis %d: %.4f exceeds bound %.4f", v.Field, v.Axis, v.Value, v.Bound)
}

// Validator checks commands against a fixed set of limits.
type Validator struct {
	lim Limits
}

// NewValidator builds a validator for the given limits.
func NewValidator(lim Limits) *Validator {
	return &Validator{lim: lim}
}

// Check verifies that next respects the absolute bounds and, given the
// previous cycle's command, the per-cycle discontinuity bounds. prev is nil
// on the first cycle of an activation. A nil return means accept.
func (v *Validator) Check(prev, next *protocol.Command) error {
	if prev != nil && prev.Kind != next.Kind {
		return &Violation{Field: "motion_kind", Axis: -1,
			Value: float64(next.Kind), Bound: float64(prev.Kind)}
	}

	// A stop frame carries no motion to execute; nothing to validate.
	if next.Signal == protocol.SignalStop {
		return nil
	}

	for i := 0; i < next.MotionLen(); i++ {
		if !finite(next.Motion[i]) {
			return &Violation{Field: "motion_value", Axis: i, Value: next.Motion[i]}
		}
	}

	switch next.Kind {
	case protocol.KindJointPositions:
		for i := 0; i < 7; i++ {
			q := next.Motion[i]
			if q < v.lim.JointPosition[i][0] || q > v.lim.JointPosition[i][1] {
				bound := v.lim.JointPosition[i][1]
				if q < v.lim.JointPosition[i][0] {
					bound = v.lim.JointPosition[i][0]
				}
				return &Violation{Field: "joint_position", Axis: i, Value: q, Bound: bound}
			}
		}
		if err := v.rateCheck("joint_position_rate", prev, next, 7, v.lim.MaxJointPositionDelta[:]); err != nil {
			return err
		}

	case protocol.KindJointVelocities:
		for i := 0; i < 7; i++ {
			if math.Abs(next.Motion[i]) > v.lim.MaxJointVelocity[i] {
				return &Violation{Field: "joint_velocity", Axis: i,
					Value: next.Motion[i], Bound: v.lim.MaxJointVelocity[i]}
			}
		}
		if err := v.rateCheck("joint_velocity_rate", prev, next, 7, v.lim.MaxJointVelocityDelta[:]); err != nil {
			return err
		}

	case protocol.KindCartesianPose:
		if prev != nil {
			// The translation lives in column-major cells 12..14.
			var step float64
			for _, i := range []int{12, 13, 14} {
				d := next.Motion[i] - prev.Motion[i]
				step += d * d
			}
			step = math.Sqrt(step)
			if step > v.lim.MaxTranslationDelta {
				return &Violation{Field: "translation_rate", Axis: -1,
					Value: step, Bound: v.lim.MaxTranslationDelta}
			}
		}

	case protocol.KindCartesianVelocities:
		for i := 0; i < 6; i++ {
			if math.Abs(next.Motion[i]) > v.lim.MaxCartesianVelocity[i] {
				return &Violation{Field: "cartesian_velocity", Axis: i,
					Value: next.Motion[i], Bound: v.lim.MaxCartesianVelocity[i]}
			}
		}
		if err := v.rateCheck("cartesian_velocity_rate", prev, next, 6, v.lim.MaxCartesianVelocityDelta[:]); err != nil {
			return err
		}
	}

	if next.HasTorque {
		for i := 0; i < 7; i++ {
			if !finite(next.Tau[i]) {
				return &Violation{Field: "torque_value", Axis: i, Value: next.Tau[i]}
			}
			if math.Abs(next.Tau[i]) > v.lim.MaxTorque[i] {
				return &Violation{Field: "torque", Axis: i,
					Value: next.Tau[i], Bound: v.lim.MaxTorque[i]}
			}
			if prev != nil && prev.HasTorque {
				d := math.Abs(next.Tau[i] - prev.Tau[i])
				if d > v.lim.MaxTorqueDelta[i] {
					return &Violation{Field: "torque_rate", Axis: i,
						Value: d, Bound: v.lim.MaxTorqueDelta[i]}
				}
			}
		}
	}

	return nil
}

func (v *Validator) rateCheck(field string, prev, next *protocol.Command, n int, bounds []float64) error {
	if prev == nil {
		return nil
	}
	for i := 0; i < n; i++ {
		d := math.Abs(next.Motion[i] - prev.Motion[i])
		if d > bounds[i] {
			return &Violation{Field: field, Axis: i, Value: d, Bound: bounds[i]}
		}
	}
	return nil
}
