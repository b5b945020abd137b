package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"
	"go.viam.com/test"

	"blockpush-backend/logging"
	"blockpush-backend/services"
)

const openWorld = `
name: open
width: 10
height: 10
blocks:
  - id: crate
    cell: {x: 7, y: 7}
robot:
  cell: {x: 0, y: 0}
  heading: 0
goals:
  - block_id: crate
    cell: {x: 5, y: 5}
`

func writeWorld(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "world.yaml")
	test.That(t, os.WriteFile(path, []byte(doc), 0o644), test.ShouldBeNil)
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"blockpush", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestPlanCommand(t *testing.T) {
	out, err := runCLI(t, "plan", "--world", writeWorld(t, openWorld))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "status:        ready")
	test.That(t, out, test.ShouldContainSubstring, "block path:    [(7,7) (6,7) (5,7) (5,6) (5,5)]")
	test.That(t, out, test.ShouldContainSubstring, "docking cell:  (8,7) facing west")
	test.That(t, out, test.ShouldContainSubstring, "transport (9): PB -> PB -> TL -> F -> TR -> F -> TR -> PB -> PB")
	test.That(t, out, test.ShouldContainSubstring, "total:         27 actions, 4 pushes, 1 side-steps")
}

func TestPlanCommandGoalOverride(t *testing.T) {
	out, err := runCLI(t, "plan", "--world", writeWorld(t, openWorld), "--block", "crate", "--goal", "7,7")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "already_at_goal")
}

func TestPlanCommandInfeasible(t *testing.T) {
	walled := `
width: 5
height: 3
rows:
  - "..#.."
  - "..#.."
  - "..#.."
blocks:
  - id: crate
    cell: {x: 1, y: 1}
robot:
  cell: {x: 0, y: 0}
goals:
  - block_id: crate
    cell: {x: 4, y: 1}
`
	out, err := runCLI(t, "plan", "--world", writeWorld(t, walled))
	test.That(t, err, test.ShouldNotBeNil)
	exitErr, ok := err.(cli.ExitCoder)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, exitErr.ExitCode(), test.ShouldEqual, 2)
	test.That(t, out, test.ShouldContainSubstring, "infeasible")
}

func TestPlanCommandErrors(t *testing.T) {
	_, err := runCLI(t, "plan")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = runCLI(t, "plan", "--world", filepath.Join(t.TempDir(), "missing.yaml"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = runCLI(t, "plan", "--world", writeWorld(t, openWorld), "--block", "ghost", "--goal", "1,1")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = runCLI(t, "plan", "--world", writeWorld(t, openWorld), "--goal", "1")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSimulateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "events.db")
	out, err := runCLI(t, "simulate", "--world", writeWorld(t, openWorld), "--db", dbPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "robot:         (5,6) facing north")
	test.That(t, out, test.ShouldContainSubstring, "block crate delivered to (5,5)")

	db, err := services.OpenDatabase(&services.Config{DBDriver: "sqlite", SQLitePath: dbPath}, logging.NewNop())
	test.That(t, err, test.ShouldBeNil)
	defer services.CloseDatabase(db)
	store := services.NewMissionStore(db)
	missions, err := store.RecentMissions(10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, missions, test.ShouldHaveLength, 1)
	events, err := store.EventsByMission(missions[0].ID)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, events, test.ShouldHaveLength, 28)
}

func TestSimulateSampleWorld(t *testing.T) {
	out, err := runCLI(t, "simulate", "--world", filepath.Join("..", "..", "worlds", "example.yaml"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "delivered to (5,5)")
}

func TestGenerateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.yaml")
	_, err := runCLI(t, "generate", "--width", "8", "--height", "6", "--obstacles", "5", "--blocks", "2", "--seed", "7", "--out", path)
	test.That(t, err, test.ShouldBeNil)

	w, err := services.LoadWorld(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w.Width, test.ShouldEqual, 8)
	test.That(t, w.Height, test.ShouldEqual, 6)
	test.That(t, w.Blocks, test.ShouldHaveLength, 2)

	out, err := runCLI(t, "generate", "--seed", "7")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "width: 10")
}
