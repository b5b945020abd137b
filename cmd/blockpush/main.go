// Command blockpush plans and simulates block-pushing missions from a YAML world file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"blockpush-backend/logging"
	"blockpush-backend/models"
	"blockpush-backend/services"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		code := 1
		if exitErr, ok := err.(cli.ExitCoder); ok {
			code = exitErr.ExitCode()
		}
		os.Exit(code)
	}
}

func newApp(out io.Writer) *cli.App {
	missionFlags := []cli.Flag{
		&cli.StringFlag{Name: "world", Aliases: []string{"w"}, Usage: "YAML world file", Required: true},
		&cli.StringFlag{Name: "block", Aliases: []string{"b"}, Usage: "block id (default: first block in the world)"},
		&cli.StringFlag{Name: "goal", Aliases: []string{"g"}, Usage: "goal cell as x,y (default: the block's goal in the world)"},
		&cli.StringFlag{Name: "robot", Aliases: []string{"r"}, Usage: "robot pose as x,y[,heading] (default: world robot)"},
		&cli.Float64Flag{Name: "turn-penalty", Value: services.DefaultTurnPenalty, Usage: "extra cost per block path turn"},
	}

	return &cli.App{
		Name:      "blockpush",
		Usage:     "plan and simulate block-pushing missions",
		Writer:    out,
		ErrWriter: out,
		// 종료 코드는 main에서 처리
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug | info | warn | error"},
		},
		Commands: []*cli.Command{
			{
				Name:   "plan",
				Usage:  "print the block path, the grid and the action list",
				Flags:  missionFlags,
				Action: planAction,
			},
			{
				Name:  "simulate",
				Usage: "plan, then run the mission on a simulated robot",
				Flags: append(missionFlags,
					&cli.StringFlag{Name: "db", Usage: "SQLite file to record mission events (optional)"},
				),
				Action: simulateAction,
			},
			{
				Name:  "generate",
				Usage: "write a random world file",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "width", Value: 10},
					&cli.IntFlag{Name: "height", Value: 10},
					&cli.IntFlag{Name: "obstacles", Value: 8},
					&cli.IntFlag{Name: "blocks", Value: 1},
					&cli.Int64Flag{Name: "seed", Usage: "random seed (0 = time based)"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default stdout)"},
				},
				Action: generateAction,
			},
		},
	}
}

// session - 월드 + 계획기 + 미션 요청
type session struct {
	world   *models.World
	planner *services.MissionPlanner
	req     models.MissionRequest
	logger  *zap.SugaredLogger
}

func loadSession(c *cli.Context) (*session, error) {
	logger := logging.New("blockpush", logging.Options{Level: c.String("log-level")})

	world, err := services.LoadWorld(c.String("world"))
	if err != nil {
		return nil, err
	}
	opts := services.DefaultPlannerOptions()
	opts.BlockTurnPenalty = c.Float64("turn-penalty")
	planner, err := services.NewPlannerForWorld(world, opts, logger.Named("planner"))
	if err != nil {
		return nil, err
	}

	blockID := c.String("block")
	if blockID == "" {
		if len(world.Blocks) == 0 {
			return nil, errors.New("world has no blocks")
		}
		blockID = world.Blocks[0].ID
	}

	req := models.MissionRequest{BlockID: blockID, Robot: world.Robot}
	if s := c.String("goal"); s != "" {
		if req.Goal, err = parseCell(s); err != nil {
			return nil, err
		}
	} else if goal, ok := world.GoalFor(blockID); ok {
		req.Goal = goal.Cell
	} else {
		return nil, errors.Errorf("no goal for block %s (use --goal)", blockID)
	}
	if s := c.String("robot"); s != "" {
		if req.Robot, err = parsePose(s); err != nil {
			return nil, err
		}
	}

	return &session{world: world, planner: planner, req: req, logger: logger}, nil
}

func (s *session) scene() scene {
	sc := newScene(s.planner.Grid(), s.planner.Blocks().List())
	goal := s.req.Goal
	sc.goal = &goal
	robot := s.req.Robot
	sc.robot = &robot
	return sc
}

func printMission(out io.Writer, s *session, m *models.Mission) {
	fmt.Fprintln(out, s.scene().withPath(m.BlockPath).render(fmt.Sprintf("%s: block %s %s → %s", s.world.Name, m.BlockID, m.Start, m.Goal)))
	fmt.Fprintf(out, "status:        %s\n", m.Status)
	if m.Err != nil {
		fmt.Fprintf(out, "reason:        %s (%v)\n", m.Reason, m.Err)
		return
	}
	fmt.Fprintf(out, "block path:    %v\n", m.BlockPath)
	if m.DockingCell != nil {
		fmt.Fprintf(out, "docking cell:  %s facing %s\n", *m.DockingCell, m.FinalHeading)
	}
	fmt.Fprintf(out, "approach (%d): %s\n", m.ApproachCount, models.JoinActions(m.Actions[:m.ApproachCount]))
	if m.TransportCount > 0 {
		fmt.Fprintf(out, "transport (%d): %s\n", m.TransportCount, models.JoinActions(m.Actions[m.ApproachCount+1:]))
	}
	fmt.Fprintf(out, "total:         %d actions, %d pushes, %d side-steps\n",
		len(m.Actions), m.Pushes(), services.CountManeuvers(m.Actions))
}

func planAction(c *cli.Context) error {
	s, err := loadSession(c)
	if err != nil {
		return err
	}
	m := s.planner.GenerateMission(s.req)
	printMission(c.App.Writer, s, m)
	if !m.Succeeded() {
		return cli.Exit("mission infeasible", 2)
	}
	return nil
}

func simulateAction(c *cli.Context) (err error) {
	s, err := loadSession(c)
	if err != nil {
		return err
	}
	m := s.planner.GenerateMission(s.req)
	printMission(c.App.Writer, s, m)
	if !m.Succeeded() {
		return cli.Exit("mission infeasible", 2)
	}

	var events *services.EventBuffer
	if path := c.String("db"); path != "" {
		db, dbErr := services.OpenDatabase(&services.Config{DBDriver: "sqlite", SQLitePath: path}, s.logger.Named("db"))
		if dbErr != nil {
			return dbErr
		}
		if saveErr := services.NewMissionStore(db).SaveMission(m); saveErr != nil {
			return multierr.Append(saveErr, services.CloseDatabase(db))
		}
		events = services.NewEventBuffer(db, 1000, time.Minute, s.logger.Named("events"))
		defer func() {
			err = multierr.Combine(err, events.Stop(), services.CloseDatabase(db))
		}()
	}

	sim := services.NewSimRobotFromPlanner(s.planner, s.req.Robot, s.logger.Named("sim"))
	opts := services.ExecutorOptions{RobotID: "cli-sim", Mode: models.RobotModeSim}
	if events != nil {
		opts.Events = events
	}
	exec := services.NewExecutor(s.planner, sim, opts, s.logger.Named("executor"))

	runErr := exec.RunMission(context.Background(), m)

	pose, _ := sim.Pose(context.Background())
	final := newScene(s.planner.Grid(), s.planner.Blocks().List())
	goal := s.req.Goal
	final.goal = &goal
	final.robot = &pose
	moves, pushes := sim.Stats()
	fmt.Fprintln(c.App.Writer, final.render("after execution"))
	fmt.Fprintf(c.App.Writer, "robot:         %s\n", pose)
	fmt.Fprintf(c.App.Writer, "moves/pushes:  %d/%d\n", moves, pushes)

	if runErr != nil {
		return cli.Exit(fmt.Sprintf("execution stopped: %v", runErr), 3)
	}
	block, err := s.planner.Blocks().Get(s.req.BlockID)
	if err != nil {
		return err
	}
	if block.Cell() != s.req.Goal {
		return cli.Exit(fmt.Sprintf("block ended at %s, not %s", block.Cell(), s.req.Goal), 3)
	}
	fmt.Fprintf(c.App.Writer, "✅ block %s delivered to %s\n", block.ID, s.req.Goal)
	return nil
}

func generateAction(c *cli.Context) error {
	w, err := services.NewWorldGenerator(c.Int64("seed")).Generate(
		c.Int("width"), c.Int("height"), c.Int("obstacles"), c.Int("blocks"))
	if err != nil {
		return err
	}
	data, err := services.MarshalWorld(w)
	if err != nil {
		return err
	}
	if path := c.String("out"); path != "" {
		return errors.Wrap(os.WriteFile(path, data, 0o644), "write world")
	}
	_, err = c.App.Writer.Write(data)
	return err
}
