package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/petems/wave-overlay/internal/audio"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1).
			MarginBottom(1)

	pickStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List loopback capture devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		host, err := audio.NewHost(cfg.Audio.Backend)
		if err != nil {
			return err
		}
		defer host.Close()

		return listDevices(os.Stdout, host, cfg.Audio.Backend, cfg.Audio.Device)
	},
}

// suggestDevices reports whether listing devices would help with err. When
// the backend has no loopback facility at all the listing fails too.
func suggestDevices(err error) bool {
	return errors.Is(err, audio.ErrNoLoopbackDevice)
}

// listDevices prints the loopback devices of host, marking the default
// output and the device the overlay would capture from.
func listDevices(w io.Writer, host audio.Host, backend, match string) error {
	fmt.Fprintln(w, titleStyle.Render("Loopback devices ("+backend+")"))

	if out, err := host.DefaultOutput(); err == nil {
		fmt.Fprintln(w, infoStyle.Render("Default output: "+out.String()))
	}

	devices, err := host.LoopbackDevices()
	if err != nil {
		return err
	}

	picked, resolveErr := audio.Resolve(host, match)

	var b strings.Builder
	for _, d := range devices {
		line := fmt.Sprintf("  %-4d %s", d.Index, d.Name)
		if d.Channels > 0 {
			line += infoStyle.Render(fmt.Sprintf("  %dch %dHz", d.Channels, d.SampleRate))
		}
		if d.Default {
			line += infoStyle.Render("  (default)")
		}
		if resolveErr == nil && d.Index == picked.Index && d.Name == picked.Name {
			line = pickStyle.Render("> " + strings.TrimPrefix(line, "  "))
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if len(devices) == 0 {
		b.WriteString(infoStyle.Render("  none") + "\n")
	}
	fmt.Fprint(w, b.String())

	if resolveErr != nil {
		fmt.Fprintln(w, errStyle.Render("No device would be captured: "+resolveErr.Error()))
	}
	return nil
}
