package systems

import "gonum.org/v1/gonum/spatial/r3"

// Integrate advances every particle by vel*dt. A coordinate that leaves
// [-halfExtent, halfExtent] reappears on the opposite face.
func Integrate(d Dispatcher, pos, vel []r3.Vec, dt, halfExtent float64) {
	d.ParallelFor(len(pos), func(start, end int) {
		for i := start; i < end; i++ {
			p := r3.Add(pos[i], r3.Scale(dt, vel[i]))
			pos[i] = r3.Vec{
				X: wrapAxis(p.X, halfExtent),
				Y: wrapAxis(p.Y, halfExtent),
				Z: wrapAxis(p.Z, halfExtent),
			}
		}
	})
}
