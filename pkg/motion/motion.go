// Package motion provides ready-made trajectory generators for common
// motions. Each generator is a stateful closure implementing robot.MotionFunc:
// it captures the robot's configuration on the first cycle and interpolates
// toward its goal with a smooth profile, so the commanded values never carry
// a step discontinuity.
package motion

import (
	"math"
	"time"

	"github.com/MMintLab/libfranka/pkg/robot"
)

// smoothStep maps t in [0, T] to [0, 1] with zero velocity at both ends.
func smoothStep(t, total float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= total {
		return 1
	}
	return (1 - math.Cos(math.Pi*t/total)) / 2
}

// JointMotion moves the arm from its current configuration to goal over the
// given duration. The first cycle commands the start configuration itself;
// the final command carries the goal and finishes the motion.
func JointMotion(goal [7]float64, duration time.Duration) robot.MotionFunc {
	var (
		start   [7]float64
		started bool
		t       float64
	)
	total := duration.Seconds()

	return func(state robot.State, dt time.Duration) (robot.MotionCommand, error) {
		if !started {
			start = state.Q
			started = true
		}
		t += dt.Seconds()

		if t >= total {
			return robot.MotionFinished(robot.JointPositions(goal)), nil
		}

		s := smoothStep(t, total)
		var q [7]float64
		for i := range q {
			q[i] = start[i] + (goal[i]-start[i])*s
		}
		return robot.JointPositions(q), nil
	}
}

// JointVelocityWave drives joints 4 through 7 with one smooth velocity
// oscillation of the given amplitude over the given period, then finishes at
// zero velocity.
func JointVelocityWave(amplitude float64, period time.Duration) robot.MotionFunc {
	var t float64
	total := period.Seconds()

	return func(state robot.State, dt time.Duration) (robot.MotionCommand, error) {
		t += dt.Seconds()

		if t >= total {
			return robot.MotionFinished(robot.JointVelocities([7]float64{})), nil
		}

		omega := amplitude / 2 * (1 - math.Cos(2*math.Pi*t/total))
		return robot.JointVelocities([7]float64{0, 0, 0, omega, omega, omega, omega}), nil
	}
}

// CircularMotion sweeps the end effector through one vertical circle of the
// given radius in the x-z plane, starting and ending at the current pose.
func CircularMotion(radius float64, duration time.Duration) robot.MotionFunc {
	var (
		start   [16]float64
		started bool
		t       float64
	)
	total := duration.Seconds()

	return func(state robot.State, dt time.Duration) (robot.MotionCommand, error) {
		if !started {
			start = state.OTEE
			started = true
		}
		t += dt.Seconds()

		if t >= total {
			return robot.MotionFinished(robot.CartesianPose(start)), nil
		}

		// One full revolution, eased in and out so the pose path has no
		// velocity discontinuity at either end.
		angle := 2 * math.Pi * smoothStep(t, total)
		pose := start
		pose[12] += radius * math.Sin(angle)
		pose[14] += radius * (math.Cos(angle) - 1)
		return robot.CartesianPose(pose), nil
	}
}

// Damper returns a torque callback that opposes measured joint velocity with
// the given gains. The velocity signal is smoothed with a moving average over
// window cycles before the gains apply.
func Damper(gains [7]float64, window int) robot.TorqueFunc {
	if window < 1 {
		window = 1
	}
	history := make([][7]float64, 0, window)
	next := 0

	return func(state robot.State, dt time.Duration) (robot.TorqueCommand, error) {
		sample := state.Dq
		if len(history) < window {
			history = append(history, sample)
		} else {
			history[next] = sample
			next = (next + 1) % window
		}

		var filtered [7]float64
		for _, h := range history {
			for i := range filtered {
				filtered[i] += h[i]
			}
		}
		n := float64(len(history))

		var tau [7]float64
		for i := range tau {
			tau[i] = -gains[i] * filtered[i] / n
		}
		return robot.Torques(tau), nil
	}
}
