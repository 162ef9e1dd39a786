// Package limits validates commanded motion against configured absolute
// bounds and per-cycle discontinuity bounds. The checks are pure computation
// and run inside the control cycle budget.
package limits

import "math"

// Limits holds the per-joint and per-axis thresholds a command must satisfy.
// They are configured before a control activation begins and are read-only
// while it runs.
type Limits struct {
	// JointPosition holds [min, max] bounds per joint in radians.
	JointPosition [7][2]float64

	// MaxJointVelocity bounds the absolute value of commanded joint
	// velocities in rad/s.
	MaxJointVelocity [7]float64

	// MaxTorque bounds the absolute value of commanded joint torques in Nm.
	MaxTorque [7]float64

	// MaxCartesianVelocity bounds commanded Cartesian velocities
	// (vx vy vz wx wy wz) in m/s and rad/s.
	MaxCartesianVelocity [6]float64

	// Per-cycle discontinuity bounds. The controller cannot execute a step
	// discontinuity safely, so the change versus the previous cycle is
	// limited separately from the absolute value.
	MaxJointPositionDelta     [7]float64
	MaxJointVelocityDelta     [7]float64
	MaxTorqueDelta            [7]float64
	MaxCartesianVelocityDelta [6]float64

	// MaxTranslationDelta bounds the per-cycle step of the commanded pose
	// translation in meters.
	MaxTranslationDelta float64
}

// Default returns limits matching a Panda-class 7-DOF manipulator running at
// 1 kHz.
func Default() Limits {
	return Limits{
		JointPosition: [7][2]float64{
			{-2.8973, 2.8973},
			{-1.7628, 1.7628},
			{-2.8973, 2.8973},
			{-3.0718, -0.0698},
			{-2.8973, 2.8973},
			{-0.0175, 3.7525},
			{-2.8973, 2.8973},
		},
		MaxJointVelocity:     [7]float64{2.175, 2.175, 2.175, 2.175, 2.61, 2.61, 2.61},
		MaxTorque:            [7]float64{87, 87, 87, 87, 12, 12, 12},
		MaxCartesianVelocity: [6]float64{1.7, 1.7, 1.7, 2.5, 2.5, 2.5},

		MaxJointPositionDelta:     [7]float64{0.01, 0.01, 0.01, 0.01, 0.015, 0.015, 0.015},
		MaxJointVelocityDelta:     [7]float64{0.015, 0.0075, 0.01, 0.0125, 0.015, 0.02, 0.02},
		MaxTorqueDelta:            [7]float64{1, 1, 1, 1, 1, 1, 1},
		MaxCartesianVelocityDelta: [6]float64{0.013, 0.013, 0.013, 0.025, 0.025, 0.025},

		MaxTranslationDelta: 0.002,
	}
}

// finite reports whether v is a usable command value.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
