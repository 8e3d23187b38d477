// Command picrepl is an interactive single-rank inspector for
// picfield: it holds one Mesh, one Field[float64] and one
// ParticleBase, and lets commands typed at the prompt create
// particles, scatter/gather charge, and print field cells — useful
// for poking at the data plane's behavior without writing a Go
// program first.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ergochat/readline"

	"github.com/meshkit/picfield"
	"github.com/meshkit/picfield/comm"
	"github.com/meshkit/picfield/utils"
)

// REPL holds the single-rank session state every command mutates or
// inspects.
type REPL struct {
	rl *readline.Instance

	mesh   *picfield.Mesh
	comm   *comm.Communicator
	field  *picfield.Field[float64]
	layout *picfield.FieldLayout
	parts  *picfield.ParticleBase
	charge *picfield.ParticleAttrib[float64]
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),
	readline.PcItem("mesh"),
	readline.PcItem("create"),
	readline.PcItem("scatter"),
	readline.PcItem("gather"),
	readline.PcItem("fill"),
	readline.PcItem("show"),
	readline.PcItem("stats"),
	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	if r == readline.CharCtrlZ {
		return r, false
	}
	return r, true
}

func (r *REPL) Open() (err error) {
	r.rl, err = readline.NewEx(&readline.Config{
		Prompt:              "picfield> ",
		HistoryFile:         ".picrepl_history.txt",
		AutoComplete:        completer,
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	r.rl.CaptureExitSignal()
	return nil
}

func (r *REPL) Close() {
	if r.rl != nil {
		_ = r.rl.Close()
		r.rl = nil
	}
}

func (r *REPL) cmdMesh(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: mesh <nx> <ny> <nz>")
	}
	var n [3]int
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return err
		}
		n[i] = v
	}
	mesh, err := picfield.NewMesh(picfield.Vec3{}, picfield.Vec3{X: 1, Y: 1, Z: 1}, n)
	if err != nil {
		return err
	}
	cluster := comm.NewLocalCluster(1)
	c, err := comm.NewCommunicator(cluster[0], utils.Noop{})
	if err != nil {
		return err
	}
	global := mesh.GlobalDomain()
	layout, err := picfield.NewFieldLayout(global, []picfield.NDIndex{global}, 0, 1)
	if err != nil {
		return err
	}
	r.mesh = mesh
	r.comm = c
	r.layout = layout
	r.field = picfield.NewField[float64](mesh, layout, c)
	r.parts = picfield.NewParticleBase(c)
	r.charge = picfield.NewParticleAttrib[float64]()
	fmt.Printf("mesh %dx%dx%d ready\n", n[0], n[1], n[2])
	return nil
}

func (r *REPL) requireMesh() error {
	if r.mesh == nil {
		return fmt.Errorf("no mesh: run 'mesh <nx> <ny> <nz>' first")
	}
	return nil
}

func (r *REPL) cmdCreate(args []string) error {
	if err := r.requireMesh(); err != nil {
		return err
	}
	if len(args) != 4 {
		return fmt.Errorf("usage: create <x> <y> <z> <charge>")
	}
	var pos picfield.Vec3
	pos.X, _ = strconv.ParseFloat(args[0], 64)
	pos.Y, _ = strconv.ParseFloat(args[1], 64)
	pos.Z, _ = strconv.ParseFloat(args[2], 64)
	q, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return err
	}
	if err := r.parts.Create(1); err != nil {
		return err
	}
	r.parts.R.Set(r.parts.LocalN()-1, pos)
	r.charge.Create(1)
	r.charge.Set(r.charge.Len()-1, q)
	fmt.Printf("particle %d created at %+v, charge %g\n", r.parts.ID.Get(r.parts.LocalN()-1), pos, q)
	return nil
}

func (r *REPL) cmdScatter([]string) error {
	if err := r.requireMesh(); err != nil {
		return err
	}
	return picfield.Scatter(r.charge, r.field, r.parts.R, nil)
}

func (r *REPL) cmdGather([]string) error {
	if err := r.requireMesh(); err != nil {
		return err
	}
	dst := picfield.NewParticleAttrib[float64]()
	dst.Create(r.parts.R.Len())
	if err := picfield.Gather(dst, r.field, r.parts.R, nil); err != nil {
		return err
	}
	for i := 0; i < dst.Len(); i++ {
		fmt.Printf("particle %d: %g\n", r.parts.ID.Get(i), dst.Get(i))
	}
	return nil
}

func (r *REPL) cmdFill([]string) error {
	if err := r.requireMesh(); err != nil {
		return err
	}
	return r.field.FillHalo()
}

func (r *REPL) cmdShow(args []string) error {
	if err := r.requireMesh(); err != nil {
		return err
	}
	if len(args) != 3 {
		return fmt.Errorf("usage: show <i> <j> <k>")
	}
	nghost := r.field.Nghost()
	i, _ := strconv.Atoi(args[0])
	j, _ := strconv.Atoi(args[1])
	k, _ := strconv.Atoi(args[2])
	fmt.Println(r.field.View().At(i+nghost, j+nghost, k+nghost))
	return nil
}

func (r *REPL) cmdStats([]string) error {
	if err := r.requireMesh(); err != nil {
		return err
	}
	fmt.Printf("avg send bytes: %.1f (%d sends)\n", r.comm.AvgSendBytes(), r.comm.SendCount()-1)
	return nil
}

func (r *REPL) dispatch(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "help":
		fmt.Println("commands: mesh, create, scatter, gather, fill, show, stats, exit, quit")
		return nil
	case "mesh":
		return r.cmdMesh(args)
	case "create":
		return r.cmdCreate(args)
	case "scatter":
		return r.cmdScatter(args)
	case "gather":
		return r.cmdGather(args)
	case "fill":
		return r.cmdFill(args)
	case "show":
		return r.cmdShow(args)
	case "stats":
		return r.cmdStats(args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func main() {
	repl := &REPL{}
	if err := repl.Open(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer repl.Close()

	for {
		line, err := repl.rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		}
		if err == io.EOF {
			break
		}
		line = strings.TrimSpace(line)
		if line == "exit" || line == "quit" {
			break
		}
		if err := repl.dispatch(line); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
