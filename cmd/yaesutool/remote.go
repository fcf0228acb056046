package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dougsko/yaesutool/pkg/client"
	"github.com/dougsko/yaesutool/pkg/config"
)

// remoteCommand drives a yaesud instance over its HTTP API.
func remoteCommand(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("remote: need a daemon URL and a command")
	}
	c := client.New(args[0])

	switch args[1] {
	case "status":
		return remoteStatus(c)
	case "sessions":
		return remoteSessions(c)
	case "stats":
		return remoteStats(c)
	case "config":
		if len(args) != 3 {
			return fmt.Errorf("remote config: need a session id")
		}
		return remoteConfig(c, args[2])
	case "latest":
		if len(args) < 3 || len(args) > 4 {
			return fmt.Errorf("remote latest: need an output file and an optional model")
		}
		model := cfg.Device.Model
		if len(args) == 4 {
			model = args[3]
		}
		image, err := c.GetLatestImage(model)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[2], image, 0644); err != nil {
			return err
		}
		fmt.Printf("Saved %d bytes to %s\n", len(image), args[2])
		return nil
	case "download":
		model := cfg.Device.Model
		if len(args) == 3 {
			model = args[2]
		}
		started, err := c.StartDownload(model)
		if err != nil {
			return err
		}
		fmt.Printf("Started %s download of %s\n", started.Status, started.Model)
		return nil
	case "upload":
		if len(args) != 3 {
			return fmt.Errorf("remote upload: need a session id")
		}
		id, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("bad session id %q", args[2])
		}
		started, err := c.StartUpload(id)
		if err != nil {
			return err
		}
		fmt.Printf("Started upload of session %d to the %s\n", started.Session, started.Model)
		return nil
	}
	return fmt.Errorf("unknown remote command %q", args[1])
}

func remoteStatus(c *client.Client) error {
	status, err := c.GetStatus()
	if err != nil {
		return err
	}
	fmt.Printf("Daemon:  %s %s\n", status.Status, status.Version)
	fmt.Printf("Device:  %s\n", status.Device)
	if status.Model != "" {
		fmt.Printf("Model:   %s\n", status.Model)
	}
	fmt.Printf("Uptime:  %.0f s\n", status.Uptime)
	if status.Busy {
		fmt.Printf("A transfer is running.\n")
	}
	return nil
}

func remoteSessions(c *client.Client) error {
	sessions, err := c.GetSessions(50)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No recorded sessions.")
		return nil
	}
	fmt.Printf("%4s  %-20s %-6s %-9s %8s  %s\n", "ID", "Time", "Model", "Direction", "Size", "Note")
	for _, s := range sessions {
		fmt.Printf("%4d  %-20s %-6s %-9s %8d  %s\n",
			s.ID, s.Timestamp.Local().Format("2006-01-02 15:04:05"),
			s.Model, s.Direction, s.ImageSize, s.Note)
	}
	return nil
}

func remoteStats(c *client.Client) error {
	stats, err := c.GetStats()
	if err != nil {
		return err
	}
	fmt.Printf("Sessions:  %d\n", stats.TotalSessions)
	fmt.Printf("Downloads: %d\n", stats.TotalDownloads)
	fmt.Printf("Uploads:   %d\n", stats.TotalUploads)
	if !stats.LastCleanup.IsZero() {
		fmt.Printf("Last cleanup: %s\n", stats.LastCleanup.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func remoteConfig(c *client.Client, arg string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("bad session id %q", arg)
	}
	text, err := c.GetSessionConfig(id, *comments)
	if err != nil {
		return err
	}
	_, err = os.Stdout.WriteString(text)
	return err
}
