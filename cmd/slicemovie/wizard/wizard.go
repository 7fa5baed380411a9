// Package wizard implements the interactive setup of a slicemovie run.
package wizard

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/mrsinham/slicemovie/cmd/slicemovie/wizard/components"
	"github.com/mrsinham/slicemovie/internal/config"
	"github.com/mrsinham/slicemovie/internal/logging"
	"github.com/mrsinham/slicemovie/internal/pipeline"
)

// Phase is the current screen of the wizard.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseSummary
)

// Wizard walks through the setup form and a confirmation summary.
type Wizard struct {
	cfg   *config.Config
	phase Phase

	setupScreen *SetupScreen
	summaryForm *huh.Form

	confirmed  bool
	configPath string

	cancelled bool
	finished  bool
}

// NewWizard creates a wizard editing cfg, or the defaults when cfg is nil.
func NewWizard(cfg *config.Config) *Wizard {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	return &Wizard{
		cfg:         cfg,
		phase:       PhaseSetup,
		setupScreen: NewSetupScreen(cfg),
		confirmed:   true,
	}
}

// Init implements tea.Model.
func (w *Wizard) Init() tea.Cmd {
	return w.setupScreen.Init()
}

// Update implements tea.Model.
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch w.phase {
	case PhaseSetup:
		return w.updateSetup(msg)
	case PhaseSummary:
		return w.updateSummary(msg)
	}
	return w, nil
}

// View implements tea.Model.
func (w *Wizard) View() string {
	switch w.phase {
	case PhaseSetup:
		return w.setupScreen.View()
	case PhaseSummary:
		return w.viewSummary()
	}
	return ""
}

func (w *Wizard) updateSetup(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := w.setupScreen.Update(msg)
	if s, ok := model.(*SetupScreen); ok {
		w.setupScreen = s
	}
	if w.setupScreen.Cancelled() {
		w.cancelled = true
		return w, tea.Quit
	}
	if w.setupScreen.Done() {
		return w.transitionToSummary()
	}
	return w, cmd
}

func (w *Wizard) transitionToSummary() (tea.Model, tea.Cmd) {
	w.phase = PhaseSummary
	w.summaryForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("config_path").
				Title("Save configuration to").
				Description("YAML file path, leave empty to skip").
				Value(&w.configPath),
			huh.NewConfirm().
				Key("confirm").
				Title("Build the animation now?").
				Value(&w.confirmed),
		),
	).WithShowHelp(false)
	return w, w.summaryForm.Init()
}

func (w *Wizard) updateSummary(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+c" {
		w.cancelled = true
		return w, tea.Quit
	}

	form, cmd := w.summaryForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.summaryForm = f
	}
	switch w.summaryForm.State {
	case huh.StateCompleted:
		w.finished = true
		return w, tea.Quit
	case huh.StateAborted:
		w.cancelled = true
		return w, tea.Quit
	}
	return w, cmd
}

func (w *Wizard) viewSummary() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		components.TitleStyle.Render("SLICEMOVIE WIZARD - Summary"),
		Summary(*w.cfg),
		"",
		w.summaryForm.View(),
		"",
		"Enter: Confirm | Ctrl+C: Cancel",
	)
}

// Summary renders the main settings of cfg.
func Summary(cfg config.Config) string {
	rows := [][2]string{
		{"Data", cfg.Input.DataDir},
		{"Filters", strings.Join(cfg.Input.Filters, ", ")},
		{"Exclude", strings.Join(cfg.Input.Exclude, ", ")},
		{"Recursive", fmt.Sprint(cfg.Input.Recursive)},
		{"Output", cfg.Output.Path},
		{"Frame rate", fmt.Sprintf("%d fps", cfg.Output.FPS)},
		{"Resolution", fmt.Sprintf("%d dpi", cfg.Output.DPI)},
		{"Colour map", cfg.Output.Colormap},
		{"Percentiles", fmt.Sprintf("%g - %g (%s)", cfg.Intensity.Lower, cfg.Intensity.Upper, cfg.Intensity.Method)},
	}
	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(components.KeyStyle.Render(r[0]))
		sb.WriteString(r[1])
		sb.WriteString("\n")
	}
	return sb.String()
}

// Run starts the interactive wizard. If fromConfig is provided, the form is
// prefilled from that file. The animation is built once the summary is
// confirmed.
func Run(fromConfig string) error {
	cfg := config.Default()
	if fromConfig != "" {
		absPath, err := filepath.Abs(fromConfig)
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}
		if cfg, err = config.Load(absPath); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	wizard := NewWizard(&cfg)
	p := tea.NewProgram(wizard, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("running wizard: %w", err)
	}
	w, ok := finalModel.(*Wizard)
	if !ok || w.cancelled || !w.finished {
		// User cancelled, not an error
		return nil
	}

	if w.configPath != "" {
		if err := config.Save(cfg, w.configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save config: %v\n", err)
		} else {
			fmt.Printf("Configuration saved to %s\n", w.configPath)
		}
	}
	if !w.confirmed {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(cfg.Log)
	defer func() { _ = log.Shutdown() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := pipeline.Run(ctx, pipeline.FromConfig(cfg, log))
	if err != nil {
		fmt.Println(components.ErrorStyle.Render("Animation failed"))
		return err
	}
	fmt.Println(components.SuccessStyle.Render(fmt.Sprintf("%d frames written to %s (%s)",
		res.Frames, res.Output, humanize.Bytes(uint64(res.OutputSize)))))
	return nil
}
