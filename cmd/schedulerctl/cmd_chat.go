package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mr-Amresh/meeting-scheduler/internal/app"
	"github.com/Mr-Amresh/meeting-scheduler/internal/handler"
	"github.com/Mr-Amresh/meeting-scheduler/internal/middleware"
	"github.com/Mr-Amresh/meeting-scheduler/internal/model"
	"github.com/Mr-Amresh/meeting-scheduler/internal/service"
)

const chatOwner = "cli"

var initial model.ProposeRequest

func init() {
	f := chatCmd.Flags()
	f.StringVar(&initial.Date, "date", "", "meeting date (YYYY-MM-DD); proposes before the first prompt")
	f.StringVar(&initial.Time, "time", "", "meeting time (HH:MM or 3:30 PM)")
	f.StringVar(&initial.Timezone, "tz", "", "IANA timezone (default from config)")
	f.StringVar(&initial.Title, "title", "", "meeting title")
	f.StringVar(&initial.Attendees, "attendees", "", "comma-separated attendee emails")
	f.StringVar(&initial.Description, "description", "", "meeting description")
	f.StringVar(&initial.Agenda, "agenda", "", "meeting agenda")
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Plan and confirm a meeting from the terminal",
	Long: `Starts a local scheduling session.

Type /propose to fill in a meeting proposal, then chat with the assistant.
A message containing "confirm" books the pending proposal on the calendar.
/show prints the pending proposal and /quit leaves.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	sess := a.Sessions.Create(chatOwner)
	c := &chat{
		app: a,
		id:  sess.ID,
		in:  bufio.NewScanner(cmd.InOrStdin()),
		out: cmd.OutOrStdout(),
	}

	if initial.Date != "" {
		if err := c.propose(ctx, initial); err != nil {
			return err
		}
	}
	return c.loop(ctx)
}

type chat struct {
	app *app.App
	id  string
	in  *bufio.Scanner
	out io.Writer
}

func (c *chat) loop(ctx context.Context) error {
	for {
		line, ok := c.prompt("> ")
		if !ok {
			return c.in.Err()
		}
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/show":
			c.show()
			continue
		case "/propose":
			req, ok := c.readProposal()
			if !ok {
				return c.in.Err()
			}
			if err := c.propose(ctx, req); err != nil {
				fmt.Fprintf(c.out, "Invalid proposal: %v\n", err)
			}
			continue
		}

		if err := middleware.ValidateMessageContent(line); err != nil {
			fmt.Fprintf(c.out, "Invalid message: %v\n", err)
			continue
		}
		c.turn(func(s *model.Session) service.Turn {
			return c.app.Controller.HandleMessage(ctx, s, line)
		})
	}
}

func (c *chat) prompt(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *chat) readProposal() (model.ProposeRequest, bool) {
	var req model.ProposeRequest
	fields := []struct {
		label string
		dst   *string
	}{
		{"Title", &req.Title},
		{"Date (YYYY-MM-DD)", &req.Date},
		{"Time (HH:MM)", &req.Time},
		{fmt.Sprintf("Timezone [%s]", c.app.Normalizer.DefaultZone()), &req.Timezone},
		{"Attendees (comma-separated)", &req.Attendees},
		{"Description", &req.Description},
		{"Agenda", &req.Agenda},
	}
	for _, f := range fields {
		v, ok := c.prompt("  " + f.label + ": ")
		if !ok {
			return req, false
		}
		*f.dst = v
	}
	return req, true
}

func (c *chat) propose(ctx context.Context, req model.ProposeRequest) error {
	in, err := handler.ParseProposal(c.app.Normalizer, req)
	if err != nil {
		return err
	}
	c.turn(func(s *model.Session) service.Turn {
		return c.app.Controller.Propose(ctx, s, in)
	})
	return nil
}

func (c *chat) turn(fn func(*model.Session) service.Turn) {
	var t service.Turn
	err := c.app.Sessions.With(chatOwner, c.id, func(s *model.Session) error {
		t = fn(s)
		return nil
	})
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	for _, e := range t.Entries {
		if e.Role == model.RoleAssistant {
			fmt.Fprintf(c.out, "\nassistant: %s\n\n", e.Message)
		}
	}
	for _, w := range t.Warnings {
		fmt.Fprintf(c.out, "warning: %s\n", w)
	}
}

func (c *chat) show() {
	s, err := c.app.Sessions.Get(chatOwner, c.id)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if s.Proposal.IsEmpty() {
		fmt.Fprintln(c.out, "No meeting proposed.")
		return
	}
	p := s.Proposal
	fmt.Fprintf(c.out, "Title:     %s\n", p.Title)
	fmt.Fprintf(c.out, "Start:     %s\n", p.StartTime.Format("Mon 2006-01-02 15:04 MST"))
	fmt.Fprintf(c.out, "Timezone:  %s\n", p.Timezone)
	fmt.Fprintf(c.out, "Attendees: %s\n", strings.Join(p.Attendees, ", "))
	if p.Description != "" {
		fmt.Fprintf(c.out, "Details:   %s\n", p.Description)
	}
	if p.Agenda != "" {
		fmt.Fprintf(c.out, "Agenda:    %s\n", p.Agenda)
	}
}
