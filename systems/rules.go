package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/flock/config"
)

// Rules holds the three flocking rules' radii and gains plus the speed clamp.
type Rules struct {
	CohesionDistance   float64
	SeparationDistance float64
	AlignmentDistance  float64
	CohesionScale      float64
	SeparationScale    float64
	AlignmentScale     float64
	MaxSpeed           float64

	cohesionSq   float64
	separationSq float64
	alignmentSq  float64
}

// NewRules returns rules with the squared radii precomputed.
func NewRules(r Rules) Rules {
	r.cohesionSq = r.CohesionDistance * r.CohesionDistance
	r.separationSq = r.SeparationDistance * r.SeparationDistance
	r.alignmentSq = r.AlignmentDistance * r.AlignmentDistance
	return r
}

// RulesFromConfig builds rules from the rules and motion config sections.
func RulesFromConfig(cfg *config.Config) Rules {
	return NewRules(Rules{
		CohesionDistance:   cfg.Rules.CohesionDistance,
		SeparationDistance: cfg.Rules.SeparationDistance,
		AlignmentDistance:  cfg.Rules.AlignmentDistance,
		CohesionScale:      cfg.Rules.CohesionScale,
		SeparationScale:    cfg.Rules.SeparationScale,
		AlignmentScale:     cfg.Rules.AlignmentScale,
		MaxSpeed:           cfg.Motion.MaxSpeed,
	})
}

// MaxRadius returns the largest of the three rule radii.
func (r *Rules) MaxRadius() float64 {
	return max(r.CohesionDistance, r.SeparationDistance, r.AlignmentDistance)
}

// influence accumulates neighbor contributions for one particle.
type influence struct {
	centerSum   r3.Vec
	cohesionN   int
	separation  r3.Vec
	velocitySum r3.Vec
	alignmentN  int
}

// add folds one neighbor into the accumulator. Radii are strict: a neighbor
// exactly at a rule's distance does not count for that rule.
func (in *influence) add(r *Rules, self, pos, vel r3.Vec) {
	d := r3.Sub(pos, self)
	distSq := r3.Norm2(d)

	if distSq < r.cohesionSq {
		in.centerSum = r3.Add(in.centerSum, pos)
		in.cohesionN++
	}
	if distSq < r.separationSq {
		in.separation = r3.Sub(in.separation, d)
	}
	if distSq < r.alignmentSq {
		in.velocitySum = r3.Add(in.velocitySum, vel)
		in.alignmentN++
	}
}

// resolve combines the accumulated rules with the prior velocity and clamps
// each axis to [-MaxSpeed, MaxSpeed].
func (in *influence) resolve(r *Rules, pos, vel r3.Vec) r3.Vec {
	v := vel
	if in.cohesionN > 0 {
		center := r3.Scale(1/float64(in.cohesionN), in.centerSum)
		v = r3.Add(v, r3.Scale(r.CohesionScale, r3.Sub(center, pos)))
	}
	v = r3.Add(v, r3.Scale(r.SeparationScale, in.separation))
	if in.alignmentN > 0 {
		avg := r3.Scale(1/float64(in.alignmentN), in.velocitySum)
		v = r3.Add(v, r3.Scale(r.AlignmentScale, r3.Sub(avg, vel)))
	}
	return clampVec(v, r.MaxSpeed)
}

func clampVec(v r3.Vec, limit float64) r3.Vec {
	return r3.Vec{
		X: clampFloat(v.X, -limit, limit),
		Y: clampFloat(v.Y, -limit, limit),
		Z: clampFloat(v.Z, -limit, limit),
	}
}
