package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/manifoldco/promptui"

	"github.com/du-events/convite/internal/client"
	"github.com/du-events/convite/internal/client/repository"
	"github.com/du-events/convite/internal/shared/log"
)

const (
	actionCheck = "Check token"
	actionAdmit = "Admit guest"
	actionQuit  = "Quit"
)

func main() {
	profilesPath := flag.String("profiles", "gates.toml", "path to gate profiles file")
	gateID := flag.String("gate", "main", "gate profile to use")
	flag.Parse()

	logger := log.New("gatectl")

	profiles := &repository.TOMLProfileRepository{FilePath: *profilesPath}
	profile, err := profiles.Get(*gateID)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("gate", *gateID).
			Msg("failed to load gate profile")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &client.Client{
		Profile: profile,
		Logger:  &logger,
	}
	logger.Info().
		Str("gate", profile.ID).
		Str("server", profile.BaseURL).
		Msg("gate console ready")

	for ctx.Err() == nil {
		action, err := selectAction()
		if err != nil || action == actionQuit {
			return
		}
		token, err := promptToken()
		if err != nil {
			continue
		}
		switch action {
		case actionCheck:
			res, err := c.Check(ctx, token)
			if err != nil {
				logger.Error().Err(err).Msg("check failed")
				continue
			}
			printCheck(res)
		case actionAdmit:
			res, err := c.Admit(ctx, token)
			if err != nil {
				logger.Error().Err(err).Msg("admit failed")
				continue
			}
			printAdmit(res)
		}
	}
}

func selectAction() (string, error) {
	sel := promptui.Select{
		Label: "Action",
		Items: []string{actionCheck, actionAdmit, actionQuit},
	}
	_, action, err := sel.Run()
	return action, err
}

func promptToken() (string, error) {
	prompt := promptui.Prompt{
		Label: "Token (scan or paste)",
		Validate: func(s string) error {
			if s == "" {
				return fmt.Errorf("token required")
			}
			return nil
		},
	}
	return prompt.Run()
}

func printCheck(res client.CheckResult) {
	if !res.OK {
		fmt.Printf("  ✗ %s\n", res.Error)
		return
	}
	fmt.Printf("  Guest:   %s\n", res.Guest.GuestName)
	fmt.Printf("  Student: %s (%s)\n", res.Student.StudentName, res.Student.MatricNo)
	fmt.Printf("  Status:  %s\n", res.Status)
	if res.UsedAt != nil {
		fmt.Printf("  Used:    %s", *res.UsedAt)
		if res.UsedBy != nil {
			fmt.Printf(" by %s", *res.UsedBy)
		}
		fmt.Println()
	}
}

func printAdmit(res client.AdmitResult) {
	if res.OK {
		fmt.Printf("  ✓ %s admitted\n", res.Guest.GuestName)
		return
	}
	fmt.Printf("  ✗ %s\n", res.Error)
	if res.Guest.UsedAt != nil {
		fmt.Printf("    used at %s", *res.Guest.UsedAt)
		if res.Guest.UsedBy != nil {
			fmt.Printf(" by %s", *res.Guest.UsedBy)
		}
		fmt.Println()
	}
}
