package app

import (
	"context"
	"net"
	"os/exec"
	"runtime"

	"github.com/ayusman/handshelf/internal/engine"
	"github.com/ayusman/handshelf/internal/gesture"
	"github.com/ayusman/handshelf/internal/tray"
)

// Run serves the HTTP API and, when enabled, shows the tray menu. It
// returns when ctx is cancelled, the user quits from the tray or the
// server fails. The tray needs the main goroutine on some platforms, so
// call Run from main.
func (a *App) Run(ctx context.Context, staticDir string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	if addr := a.cfg.Server.Addr; addr != "" {
		srv := a.Server(staticDir)
		go func() {
			err := srv.ListenAndServe(ctx, addr)
			if err != nil {
				a.logger.Error("http server failed", "addr", addr, "error", err)
			}
			serverErr <- err
			cancel()
		}()
	} else {
		serverErr <- nil
	}

	if a.cfg.Tray {
		t := a.newTray(cancel)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
		cancel()
	}

	<-ctx.Done()
	return <-serverErr
}

// newTray builds the tray menu bound to a. quit is run from the Quit item.
func (a *App) newTray(quit func()) *tray.Tray {
	t := tray.New(a.engine.Mode())

	t.OnToggle(func(running bool) {
		var err error
		if running {
			err = a.StartTracking(context.Background())
		} else {
			err = a.StopTracking()
		}
		if err != nil {
			a.logger.Error("tray toggle failed", "running", running, "error", err)
		}
		t.SetRunning(a.engine.Running())
	})
	t.OnModeChange(func(m gesture.Mode) {
		if err := a.SetMode(m); err != nil {
			a.logger.Error("tray mode change failed", "mode", m, "error", err)
		}
	})
	if addr := a.cfg.Server.Addr; addr != "" {
		url := uiURL(addr)
		t.OnOpenUI(func() {
			if err := openBrowser(url); err != nil {
				a.logger.Warn("failed to open browser", "url", url, "error", err)
			}
		})
	}
	t.OnQuit(quit)

	a.OnLastGesture(t.SetLastGesture)
	a.OnStatus(func(st engine.Stats) {
		t.SetRunning(st.Running)
		t.SetMode(st.Mode)
	})
	return t
}

// uiURL turns a listen address into a browsable URL.
func uiURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + "/"
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
