package wizard

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/slicemovie/cmd/slicemovie/wizard/components"
	"github.com/mrsinham/slicemovie/internal/config"
	"github.com/mrsinham/slicemovie/internal/discover"
	"github.com/mrsinham/slicemovie/internal/intensity"
	"github.com/mrsinham/slicemovie/internal/render"
)

// SetupScreen edits a run configuration.
type SetupScreen struct {
	form      *huh.Form
	helpPanel *components.HelpPanel
	cfg       *config.Config
	done      bool
	cancelled bool

	// huh binds to strings
	filtersStr string
	excludeStr string
	fpsStr     string
	dpiStr     string
	lowerStr   string
	upperStr   string
}

// NewSetupScreen builds the form from cfg. cfg is updated when the form
// completes.
func NewSetupScreen(cfg *config.Config) *SetupScreen {
	s := &SetupScreen{
		helpPanel:  components.NewHelpPanel(),
		cfg:        cfg,
		filtersStr: strings.Join(cfg.Input.Filters, ","),
		excludeStr: strings.Join(cfg.Input.Exclude, ","),
		fpsStr:     strconv.Itoa(cfg.Output.FPS),
		dpiStr:     strconv.Itoa(cfg.Output.DPI),
		lowerStr:   strconv.FormatFloat(cfg.Intensity.Lower, 'g', -1, 64),
		upperStr:   strconv.FormatFloat(cfg.Intensity.Upper, 'g', -1, 64),
	}
	if cfg.Intensity.Method == "" {
		cfg.Intensity.Method = string(intensity.MethodLinear)
	}

	cmaps := make([]huh.Option[string], 0, len(render.Colormaps()))
	for _, name := range render.Colormaps() {
		cmaps = append(cmaps, huh.NewOption(name, name))
	}
	methods := make([]huh.Option[string], 0, len(intensity.Methods))
	for _, m := range intensity.Methods {
		methods = append(methods, huh.NewOption(string(m), string(m)))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("data_dir").
				Title("Data Directory").
				Value(&cfg.Input.DataDir).
				Validate(validateDataPath),

			huh.NewInput().
				Key("filters").
				Title("Filename Filters").
				Placeholder("e.g., T1w,preproc,nii.gz").
				Value(&s.filtersStr),

			huh.NewInput().
				Key("exclude").
				Title("Exclude").
				Value(&s.excludeStr),

			huh.NewConfirm().
				Key("recursive").
				Title("Search subdirectories?").
				Value(&cfg.Input.Recursive),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("output").
				Title("Output File").
				Value(&cfg.Output.Path).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("output file is required")
					}
					return nil
				}),

			huh.NewInput().
				Key("fps").
				Title("Frames per Second").
				Value(&s.fpsStr).
				Validate(validatePositiveInt),

			huh.NewInput().
				Key("dpi").
				Title("DPI").
				Value(&s.dpiStr).
				Validate(validateDPI),

			huh.NewSelect[string]().
				Key("colormap").
				Title("Colour Map").
				Options(cmaps...).
				Value(&cfg.Output.Colormap),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("lower").
				Title("Lower Percentile").
				Value(&s.lowerStr).
				Validate(validatePercentile),

			huh.NewInput().
				Key("upper").
				Title("Upper Percentile").
				Value(&s.upperStr).
				Validate(validatePercentile),

			huh.NewSelect[string]().
				Key("method").
				Title("Percentile Method").
				Options(methods...).
				Value(&cfg.Intensity.Method),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if n <= 0 {
		return fmt.Errorf("must be greater than 0")
	}
	return nil
}

func validateDPI(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if n < 10 {
		return fmt.Errorf("must be at least 10")
	}
	return nil
}

func validatePercentile(s string) error {
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if math.IsNaN(p) || p < 0 || p > 100 {
		return fmt.Errorf("must be between 0 and 100")
	}
	return nil
}

func validateDataPath(s string) error {
	if s == "" {
		return fmt.Errorf("data directory is required")
	}
	if _, err := os.Stat(s); err != nil {
		return fmt.Errorf("cannot access %s", s)
	}
	return nil
}

func (s *SetupScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *SetupScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			s.cancelled = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.helpPanel.SetWidth(msg.Width / 2)
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}
	if focused := s.form.GetFocusedField(); focused != nil {
		s.helpPanel.SetField(focused.GetKey())
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
		s.syncConfigFromForm()
	}
	return s, cmd
}

// syncConfigFromForm parses the string bindings back into the config.
func (s *SetupScreen) syncConfigFromForm() {
	s.cfg.Input.Filters = discover.SplitList(s.filtersStr)
	s.cfg.Input.Exclude = discover.SplitList(s.excludeStr)
	if n, err := strconv.Atoi(s.fpsStr); err == nil {
		s.cfg.Output.FPS = n
	}
	if n, err := strconv.Atoi(s.dpiStr); err == nil {
		s.cfg.Output.DPI = n
	}
	if p, err := strconv.ParseFloat(s.lowerStr, 64); err == nil {
		s.cfg.Intensity.Lower = p
	}
	if p, err := strconv.ParseFloat(s.upperStr, 64); err == nil {
		s.cfg.Intensity.Upper = p
	}
}

// View implements tea.Model
func (s *SetupScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		components.TitleStyle.Render("SLICEMOVIE WIZARD - Setup"),
		"",
		s.form.View(),
		"",
		s.helpPanel.View(),
		"",
		"Tab: Next field | Enter: Submit | Esc: Cancel",
	)
}

func (s *SetupScreen) Done() bool {
	return s.done
}

func (s *SetupScreen) Cancelled() bool {
	return s.cancelled
}
