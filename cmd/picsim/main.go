// Command picsim runs a small in-process PIC simulation across a
// multi-rank picfield.comm.LocalTransport cluster: a charged particle
// bunch is global_create'd across the ranks, then scatter and migrate
// are driven for a fixed number of steps, after which each rank's
// local particle count is reported. It exercises the same data plane
// a real MPI job would, without needing an mpirun launcher.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/meshkit/picfield"
	"github.com/meshkit/picfield/comm"
	"github.com/meshkit/picfield/utils"
)

func main() {
	ranks := flag.Int("ranks", 4, "number of simulated ranks")
	cells := flag.Int("cells", 16, "cells per axis in the global domain")
	particles := flag.Int("particles", 1000, "total particle count")
	steps := flag.Int("steps", 5, "number of scatter/migrate steps to run")
	verbose := flag.Bool("v", false, "log halo and migration activity")
	flag.Parse()

	if err := run(*ranks, *cells, *particles, *steps, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "picsim:", err)
		os.Exit(1)
	}
}

func run(ranks, cells, totalParticles, steps int, verbose bool) error {
	mesh, err := picfield.NewMesh(picfield.Vec3{}, picfield.Vec3{X: 1, Y: 1, Z: 1}, [3]int{cells, cells, cells})
	if err != nil {
		return err
	}
	domains := splitAlongX(mesh.GlobalDomain(), ranks)
	transports := comm.NewLocalCluster(ranks)

	var wg sync.WaitGroup
	errs := make([]error, ranks)

	wg.Add(ranks)
	for r := 0; r < ranks; r++ {
		r := r
		go func() {
			defer wg.Done()
			errs[r] = runRank(r, ranks, mesh, domains, transports[r], totalParticles, steps, verbose)
		}()
	}
	wg.Wait()

	for r, err := range errs {
		if err != nil {
			return fmt.Errorf("rank %d: %w", r, err)
		}
	}
	return nil
}

func runRank(rank, size int, mesh *picfield.Mesh, domains []picfield.NDIndex, transport comm.Transport, totalParticles, steps int, verbose bool) error {
	var logger utils.Logger = utils.Noop{}
	if verbose {
		logger = utils.NewDefaultLogger(slog.LevelDebug)
	}
	c, err := comm.NewCommunicator(transport, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	layout, err := picfield.NewFieldLayout(mesh.GlobalDomain(), domains, rank, 1)
	if err != nil {
		return err
	}

	density := picfield.NewField[float64](mesh, layout, c)
	particles := picfield.NewParticleBase(c)
	if err := particles.GlobalCreate(totalParticles); err != nil {
		return err
	}

	local := domains[rank]
	particles.R.Assign(picfield.ParticleExprFunc[picfield.Vec3](func(p int) picfield.Vec3 {
		id := particles.ID.Get(p)
		span := local[0].Length()
		x := float64(local[0].First) + float64(int(id)%span) + 0.5
		y := float64(local[1].First) + 0.5
		z := float64(local[2].First) + 0.5
		return picfield.Vec3{X: x, Y: y, Z: z}
	}))

	charge := picfield.NewParticleAttrib[float64]()
	charge.Create(particles.LocalN())
	charge.AssignScalar(1.0 / float64(totalParticles))

	for step := 0; step < steps; step++ {
		if err := picfield.Scatter(charge, density, particles.R, nil); err != nil {
			return err
		}
		if err := picfield.Migrate(c, particles, layout, mesh, 9000); err != nil {
			return err
		}
	}

	fmt.Printf("rank %d: %d particles, local domain %v\n", rank, particles.LocalN(), local)
	return nil
}

func splitAlongX(global picfield.NDIndex, n int) []picfield.NDIndex {
	out := make([]picfield.NDIndex, n)
	span := global[0].Length()
	for r := 0; r < n; r++ {
		lo := global[0].First + r*span/n
		hi := global[0].First + (r+1)*span/n
		dom := global
		dom[0] = picfield.NewInterval(lo, hi)
		out[r] = dom
	}
	return out
}
