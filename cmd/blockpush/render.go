package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"blockpush-backend/algorithms"
	"blockpush-backend/models"
)

var (
	wallStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	blockStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	goalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	robotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)
	pathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	frameStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// scene - 한 번에 그릴 격자 상태
type scene struct {
	grid   *algorithms.Grid
	blocks map[models.Cell]bool
	goal   *models.Cell
	robot  *models.Pose
	path   map[models.Cell]bool
}

func robotGlyph(h models.Heading) string {
	switch h {
	case models.HeadingSouth:
		return "v"
	case models.HeadingWest:
		return "<"
	case models.HeadingNorth:
		return "^"
	}
	return ">"
}

// render - 격자를 문자로 그림 (# 벽, B 블록, G 목표, 화살표 로봇, * 블록 경로)
func (s scene) render(title string) string {
	var sb strings.Builder
	for y := 0; y < s.grid.Height(); y++ {
		for x := 0; x < s.grid.Width(); x++ {
			c := models.Cell{X: x, Y: y}
			switch {
			case s.robot != nil && s.robot.Cell == c:
				sb.WriteString(robotStyle.Render(robotGlyph(s.robot.Heading)))
			case s.blocks[c]:
				sb.WriteString(blockStyle.Render("B"))
			case s.goal != nil && *s.goal == c:
				sb.WriteString(goalStyle.Render("G"))
			case s.grid.GetCell(x, y) == models.CellBlocked:
				sb.WriteString(wallStyle.Render("#"))
			case s.path[c]:
				sb.WriteString(pathStyle.Render("*"))
			default:
				sb.WriteString(".")
			}
			if x < s.grid.Width()-1 {
				sb.WriteByte(' ')
			}
		}
		if y < s.grid.Height()-1 {
			sb.WriteByte('\n')
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), frameStyle.Render(sb.String()))
}

func newScene(grid *algorithms.Grid, blocks []models.Block) scene {
	s := scene{grid: grid, blocks: map[models.Cell]bool{}, path: map[models.Cell]bool{}}
	for _, b := range blocks {
		s.blocks[b.Cell()] = true
	}
	return s
}

func (s scene) withPath(path []models.Cell) scene {
	for _, c := range path {
		s.path[c] = true
	}
	return s
}

// parseCell - "x,y" 형식
func parseCell(s string) (models.Cell, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return models.Cell{}, errors.Errorf("expected x,y but got %q", s)
	}
	x, err := cast.ToIntE(strings.TrimSpace(parts[0]))
	if err != nil {
		return models.Cell{}, errors.Wrapf(err, "x in %q", s)
	}
	y, err := cast.ToIntE(strings.TrimSpace(parts[1]))
	if err != nil {
		return models.Cell{}, errors.Wrapf(err, "y in %q", s)
	}
	return models.Cell{X: x, Y: y}, nil
}

// parsePose - "x,y" 또는 "x,y,heading"
func parsePose(s string) (models.Pose, error) {
	parts := strings.Split(s, ",")
	if len(parts) == 3 {
		cell, err := parseCell(parts[0] + "," + parts[1])
		if err != nil {
			return models.Pose{}, err
		}
		h, err := cast.ToIntE(strings.TrimSpace(parts[2]))
		if err != nil {
			return models.Pose{}, errors.Wrapf(err, "heading in %q", s)
		}
		return models.Pose{Cell: cell, Heading: models.NormalizeHeading(h)}, nil
	}
	cell, err := parseCell(s)
	return models.Pose{Cell: cell}, err
}
