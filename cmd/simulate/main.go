package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/playmatatu/carrom/internal/ai"
	"github.com/playmatatu/carrom/internal/config"
	"github.com/playmatatu/carrom/internal/game"
)

type CLI struct {
	Matches    int     `default:"10" help:"Number of AI-vs-AI matches to play"`
	Seed       int64   `default:"0" help:"RNG seed (0 for random)"`
	Candidates int     `default:"10" help:"Strikes sampled per turn"`
	Workers    int     `default:"0" help:"Parallel evaluations per turn (0 for one per CPU)"`
	MaxTurns   int     `default:"400" help:"Turns before a match is abandoned"`
	Width      float64 `default:"700" help:"Board width"`
	Table      string  `type:"path" help:"HCL table preset overriding the board, physics and search settings"`
	Rotate     bool    `help:"Let the breaking player rotate the formation"`
	Verbose    bool    `short:"v" help:"Log every rule event"`
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	whiteStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	blackStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("8"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
)

// matchStats summarises one finished (or abandoned) match.
type matchStats struct {
	Winner   int
	Reason   game.Reason
	Turns    int
	Fouls    [2]int
	Finished bool
}

type summary struct {
	Played    int
	Wins      [2]int
	Abandoned int
	Reasons   map[game.Reason]int
	Turns     int
	Fouls     [2]int
}

func (s *summary) add(ms matchStats) {
	s.Played++
	s.Turns += ms.Turns
	s.Fouls[0] += ms.Fouls[0]
	s.Fouls[1] += ms.Fouls[1]
	if !ms.Finished {
		s.Abandoned++
		return
	}
	s.Wins[ms.Winner]++
	s.Reasons[ms.Reason]++
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli)

	level := log.WarnLevel
	if cli.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level})

	seed := cli.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	table := cli.tableConfig()
	if cli.Table != "" {
		if err := table.ApplyTableFile(cli.Table); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			ctx.Exit(1)
		}
	}

	board, err := game.NewStandardBoard(table.BoardWidth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		ctx.Exit(1)
	}

	aiCfg := ai.Config{
		Candidates:    table.AICandidates,
		Workers:       table.AIWorkers,
		Sim:           table.SimParams(),
		Limits:        table.StrikeLimits(),
		AllowRotation: cli.Rotate,
	}

	sum := summary{Reasons: make(map[game.Reason]int)}
	start := time.Now()
	for i := 0; i < cli.Matches; i++ {
		searcher := ai.NewSearcher(aiCfg, seed+int64(i), logger)
		ms, err := playMatch(context.Background(), board, searcher, aiCfg, cli.MaxTurns, logger.With("match", i+1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Match %d failed: %v\n", i+1, err)
			ctx.Exit(1)
		}
		sum.add(ms)
	}

	printSummary(sum, seed, time.Since(start))
}

// tableConfig seeds table settings from the flags and engine defaults.
func (cli *CLI) tableConfig() *config.Config {
	sim, limits := game.DefaultSimParams(), game.DefaultStrikeLimits()
	return &config.Config{
		BoardWidth:      cli.Width,
		SimDT:           sim.DT,
		SimDeceleration: sim.Deceleration,
		SimRestitution:  sim.Restitution,
		SimMaxSteps:     sim.MaxSteps,
		FrameEvery:      game.DefaultFrameEvery,
		MaxStrikeSpeed:  limits.MaxSpeed,
		MaxStrikeAngle:  limits.MaxAngle,
		AICandidates:    cli.Candidates,
		AIWorkers:       cli.Workers,
	}
}

// playMatch lets the searcher play both sides until the match ends or
// maxTurns turns have been played.
func playMatch(ctx context.Context, board *game.Board, s *ai.Searcher, cfg ai.Config, maxTurns int, logger *log.Logger) (matchStats, error) {
	m, err := game.NewMatch(board, logger)
	if err != nil {
		return matchStats{}, err
	}

	for m.Turns() < maxTurns && !m.GameOver() {
		choice, err := s.Best(ctx, m)
		if err != nil {
			return matchStats{}, err
		}
		if choice.Rotate {
			if err := m.RotateCoins(choice.Orientation); err != nil {
				return matchStats{}, err
			}
		}
		if err := m.Strike(choice.Strike, cfg.Limits); err != nil {
			return matchStats{}, err
		}
		if _, err := game.PlayTurn(m, cfg.Sim, game.DefaultFrameEvery, nil); err != nil {
			return matchStats{}, err
		}
	}

	ms := matchStats{Turns: m.Turns(), Fouls: [2]int{m.Fouls(0), m.Fouls(1)}}
	if winner, ok := m.Winner(); ok {
		ms.Winner, ms.Reason, ms.Finished = winner, m.Reason(), true
	}
	return ms, nil
}

func printSummary(s summary, seed int64, elapsed time.Duration) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("Carrom self-play: %d matches (seed %d, %s)", s.Played, seed, elapsed.Round(time.Millisecond))))
	fmt.Println()

	fmt.Printf("%s %s  %s %s\n",
		labelStyle.Render("WHITE wins:"), whiteStyle.Render(fmt.Sprint(s.Wins[0])),
		labelStyle.Render("BLACK wins:"), blackStyle.Render(fmt.Sprint(s.Wins[1])))
	if s.Abandoned > 0 {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Abandoned at turn limit: %d", s.Abandoned)))
	}

	if s.Played > 0 {
		fmt.Printf("%s %.1f\n", labelStyle.Render("Average turns:"), float64(s.Turns)/float64(s.Played))
		fmt.Printf("%s WHITE %.2f  BLACK %.2f\n", labelStyle.Render("Outstanding fouls per match:"),
			float64(s.Fouls[0])/float64(s.Played), float64(s.Fouls[1])/float64(s.Played))
	}

	if len(s.Reasons) > 0 {
		fmt.Println()
		fmt.Println(headerStyle.Render("Results by reason"))
		reasons := make([]string, 0, len(s.Reasons))
		for r := range s.Reasons {
			reasons = append(reasons, string(r))
		}
		sort.Strings(reasons)
		width := 0
		for _, r := range reasons {
			width = max(width, len(r))
		}
		for _, r := range reasons {
			fmt.Printf("  %s%s %d\n", labelStyle.Render(r), strings.Repeat(" ", width-len(r)), s.Reasons[game.Reason(r)])
		}
	}
}
