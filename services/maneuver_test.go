package services

import (
	"testing"

	"go.viam.com/test"

	"blockpush-backend/models"
)

func TestTurnsBetween(t *testing.T) {
	tr, tl := models.ActionTurnRight, models.ActionTurnLeft
	cases := []struct {
		from, to models.Heading
		want     []models.Action
	}{
		{models.HeadingEast, models.HeadingEast, nil},
		{models.HeadingEast, models.HeadingSouth, []models.Action{tr}},
		{models.HeadingEast, models.HeadingWest, []models.Action{tr, tr}},
		{models.HeadingEast, models.HeadingNorth, []models.Action{tl}},
		{models.HeadingNorth, models.HeadingEast, []models.Action{tr}},
		{models.HeadingSouth, models.HeadingEast, []models.Action{tl}},
		{models.HeadingWest, models.HeadingEast, []models.Action{tr, tr}},
	}
	for _, c := range cases {
		test.That(t, TurnsBetween(c.from, c.to), test.ShouldResemble, c.want)
	}
}

func TestTurnsBetweenMatchesHeadingRotation(t *testing.T) {
	headings := []models.Heading{models.HeadingEast, models.HeadingSouth, models.HeadingWest, models.HeadingNorth}
	for _, from := range headings {
		for _, to := range headings {
			h := from
			for _, a := range TurnsBetween(from, to) {
				if a == models.ActionTurnRight {
					h = h.Right()
				} else {
					h = h.Left()
				}
			}
			test.That(t, h, test.ShouldEqual, to)
		}
	}
}

func TestHeadingBetween(t *testing.T) {
	origin := models.Cell{X: 3, Y: 3}
	h, ok := HeadingBetween(origin, models.Cell{X: 4, Y: 3})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, h, test.ShouldEqual, models.HeadingEast)

	h, _ = HeadingBetween(origin, models.Cell{X: 3, Y: 4})
	test.That(t, h, test.ShouldEqual, models.HeadingSouth)
	h, _ = HeadingBetween(origin, models.Cell{X: 2, Y: 3})
	test.That(t, h, test.ShouldEqual, models.HeadingWest)
	h, _ = HeadingBetween(origin, models.Cell{X: 3, Y: 2})
	test.That(t, h, test.ShouldEqual, models.HeadingNorth)

	_, ok = HeadingBetween(origin, models.Cell{X: 5, Y: 5})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestTurnSenseOf(t *testing.T) {
	east, west := models.Cell{X: 1}, models.Cell{X: -1}
	north, south := models.Cell{Y: -1}, models.Cell{Y: 1}

	test.That(t, TurnSenseOf(east, east), test.ShouldEqual, TurnStraight)
	test.That(t, TurnSenseOf(east, north), test.ShouldEqual, TurnLeft)
	test.That(t, TurnSenseOf(east, south), test.ShouldEqual, TurnRight)
	test.That(t, TurnSenseOf(west, north), test.ShouldEqual, TurnRight)
	test.That(t, TurnSenseOf(south, east), test.ShouldEqual, TurnLeft)
}

// 옆걸음 시퀀스를 실제로 따라가서 로봇이 블록 뒤에서 새 방향을 바라보는지 확인
func TestManeuverEndsBehindBlock(t *testing.T) {
	dirs := []models.Heading{models.HeadingEast, models.HeadingSouth, models.HeadingWest, models.HeadingNorth}
	for _, in := range dirs {
		for _, out := range []models.Heading{in.Left(), in.Right()} {
			// 블록은 방금 (0,0)으로 밀렸고 로봇은 그 뒤에 있다
			block := models.Cell{}
			robot := models.Pose{Cell: block.Sub(in.Vector()), Heading: in}

			for _, a := range Maneuver(TurnSenseOf(in.Vector(), out.Vector())) {
				switch a {
				case models.ActionTurnLeft:
					robot.Heading = robot.Heading.Left()
				case models.ActionTurnRight:
					robot.Heading = robot.Heading.Right()
				case models.ActionForward:
					robot.Cell = robot.Cell.Add(robot.Heading.Vector())
					test.That(t, robot.Cell, test.ShouldNotResemble, block)
				}
			}
			test.That(t, robot.Heading, test.ShouldEqual, out)
			test.That(t, robot.Cell, test.ShouldResemble, block.Sub(out.Vector()))
		}
	}
}

func TestTransportActions(t *testing.T) {
	test.That(t, TransportActions(nil), test.ShouldBeEmpty)
	test.That(t, TransportActions([]models.Cell{{X: 1, Y: 1}}), test.ShouldBeEmpty)

	straight := []models.Cell{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}
	test.That(t, TransportActions(straight), test.ShouldResemble,
		[]models.Action{models.ActionPush, models.ActionPush, models.ActionPush})

	bent := []models.Cell{{X: 7, Y: 7}, {X: 6, Y: 7}, {X: 5, Y: 7}, {X: 5, Y: 6}, {X: 5, Y: 5}}
	actions := TransportActions(bent)
	test.That(t, models.JoinActions(actions), test.ShouldEqual, "PB -> PB -> TL -> F -> TR -> F -> TR -> PB -> PB")
	test.That(t, CountManeuvers(actions), test.ShouldEqual, 1)
}

func TestPathToActions(t *testing.T) {
	path := []models.Cell{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	actions, heading := PathToActions(path, models.HeadingNorth)
	test.That(t, models.JoinActions(actions), test.ShouldEqual, "TR -> F -> TR -> F -> TR -> F")
	test.That(t, heading, test.ShouldEqual, models.HeadingWest)

	actions, heading = PathToActions(path[:1], models.HeadingSouth)
	test.That(t, actions, test.ShouldBeEmpty)
	test.That(t, heading, test.ShouldEqual, models.HeadingSouth)
}
