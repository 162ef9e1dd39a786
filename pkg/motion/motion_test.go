package motion

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MMintLab/libfranka/internal/simctl"
	"github.com/MMintLab/libfranka/pkg/protocol"
	"github.com/MMintLab/libfranka/pkg/robot"
	"github.com/MMintLab/libfranka/pkg/session"
)

var homePose = [7]float64{0, -0.785, 0, -2.356, 0, 1.571, 0.785}

func runMotion(t *testing.T, fn robot.MotionFunc, opts ...robot.ControlOption) []protocol.Command {
	t.Helper()
	ctl, err := simctl.Start(simctl.Config{RateHz: 200, InitialQ: homePose})
	require.NoError(t, err)
	t.Cleanup(ctl.Close)

	r, err := robot.Connect(context.Background(), ctl.Host(),
		robot.WithSessionConfig(session.Config{Port: ctl.Port()}))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	require.NoError(t, r.Control(context.Background(), fn, opts...))
	return ctl.Commands()
}

func TestSmoothStep(t *testing.T) {
	assert.Equal(t, 0.0, smoothStep(0, 1))
	assert.Equal(t, 1.0, smoothStep(1, 1))
	assert.Equal(t, 1.0, smoothStep(2, 1))
	assert.InDelta(t, 0.5, smoothStep(0.5, 1), 1e-12)

	// Monotone over the whole ramp.
	prev := 0.0
	for i := 1; i <= 100; i++ {
		s := smoothStep(float64(i)/100, 1)
		assert.GreaterOrEqual(t, s, prev)
		prev = s
	}
}

func TestJointMotionReachesGoal(t *testing.T) {
	goal := homePose
	goal[0] += 0.05
	goal[3] -= 0.05

	cmds := runMotion(t, JointMotion(goal, 500*time.Millisecond))
	require.NotEmpty(t, cmds)

	// The first command reproduces the start configuration exactly.
	for i := 0; i < 7; i++ {
		assert.Equal(t, homePose[i], cmds[0].Motion[i], "start joint %d", i)
	}

	last := cmds[len(cmds)-1]
	assert.Equal(t, protocol.SignalFinished, last.Signal)
	for i := 0; i < 7; i++ {
		assert.Equal(t, goal[i], last.Motion[i], "goal joint %d", i)
	}

	// The profile never overshoots and stays monotone per joint.
	for _, c := range cmds {
		assert.GreaterOrEqual(t, c.Motion[0], homePose[0]-1e-12)
		assert.LessOrEqual(t, c.Motion[0], goal[0]+1e-12)
	}
	for i := 1; i < len(cmds); i++ {
		assert.GreaterOrEqual(t, cmds[i].Motion[0], cmds[i-1].Motion[0]-1e-12)
	}
}

func TestJointVelocityWave(t *testing.T) {
	const amplitude = 0.1
	cmds := runMotion(t, JointVelocityWave(amplitude, 500*time.Millisecond))
	require.NotEmpty(t, cmds)

	last := cmds[len(cmds)-1]
	assert.Equal(t, protocol.SignalFinished, last.Signal)
	for i := 0; i < 7; i++ {
		assert.Zero(t, last.Motion[i], "final velocity joint %d", i)
	}

	for _, c := range cmds {
		// Joints 1-3 stay still; the wave stays inside its amplitude.
		for i := 0; i < 3; i++ {
			assert.Zero(t, c.Motion[i])
		}
		for i := 3; i < 7; i++ {
			assert.LessOrEqual(t, math.Abs(c.Motion[i]), amplitude+1e-12)
		}
	}
}

func TestCircularMotionClosesTheLoop(t *testing.T) {
	const radius = 0.01
	cmds := runMotion(t, CircularMotion(radius, 2*time.Second))
	require.NotEmpty(t, cmds)

	first := cmds[0]
	last := cmds[len(cmds)-1]
	assert.Equal(t, protocol.SignalFinished, last.Signal)

	// Starts and ends at the captured pose.
	for _, i := range []int{12, 13, 14} {
		assert.InDelta(t, first.Motion[i], last.Motion[i], 1e-12, "translation cell %d", i)
	}

	// The path stays on the circle in the x-z plane.
	for _, c := range cmds {
		dx := c.Motion[12] - first.Motion[12]
		dz := c.Motion[14] - first.Motion[14] + radius
		assert.InDelta(t, radius, math.Hypot(dx, dz), 1e-9)
		assert.Equal(t, first.Motion[13], c.Motion[13])
	}
}

func TestDamperWithStationaryArm(t *testing.T) {
	gains := [7]float64{30, 30, 30, 30, 10, 10, 5}
	cmds := runMotion(t, JointVelocityWave(0.05, 250*time.Millisecond),
		robot.WithTorqueControl(Damper(gains, 5)))
	require.NotEmpty(t, cmds)

	// The simulated arm reports zero measured velocity, so the damper must
	// command zero torque on every cycle.
	for _, c := range cmds {
		assert.True(t, c.HasTorque)
		for i := 0; i < 7; i++ {
			assert.Zero(t, c.Tau[i], "torque joint %d", i)
		}
	}
}
