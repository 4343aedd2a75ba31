package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/strrl/polar-persona/internal/conversation"
	"github.com/strrl/polar-persona/internal/parser"
	"github.com/strrl/polar-persona/internal/responder"
)

var (
	askAI       bool
	askNoRecord bool
	askSession  string
	askShowMeta bool
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask Nanuq something",
	Long: `Ask Nanuq a question. With a message argument a single reply is printed;
without one, an interactive chat reads lines from stdin until EOF.

Every turn is appended to the transcript file (POLAR_TRANSCRIPT_FILE) so the
blueprint command can mine it later. Use --ai to let the model write replies;
any model failure falls back to the built-in answers.`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().BoolVar(&askAI, "ai", false, "Generate replies with the configured model")
	askCmd.Flags().BoolVar(&askNoRecord, "no-record", false, "Do not append turns to the transcript")
	askCmd.Flags().StringVar(&askSession, "session", "", "Session tag for recorded turns (default from POLAR_SESSION)")
	askCmd.Flags().BoolVar(&askShowMeta, "verbose-reply", false, "Print the detected topic with every reply")
}

func runAsk(cmd *cobra.Command, args []string) error {
	c, err := buildComponents(askAI)
	if err != nil {
		return err
	}

	session := askSession
	if session == "" {
		session = cfg.Session
	}

	chat := &chatSession{
		responder: c.responder(),
		out:       cmd.OutOrStdout(),
	}
	if !askNoRecord {
		chat.recorder = parser.NewRecorder(cfg.TranscriptFile, session)
	}

	if len(args) > 0 {
		return chat.turn(cmd, strings.Join(args, " "))
	}

	fmt.Fprintln(chat.out, "Talk to Nanuq (Ctrl-D to leave).")
	if chat.recorder != nil {
		fmt.Fprintf(chat.out, "Recording to %s\n", chat.recorder.Path())
	}
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(chat.out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(chat.out)
			return scanner.Err()
		}
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		if err := chat.turn(cmd, scanner.Text()); err != nil {
			return err
		}
	}
}

type chatSession struct {
	responder *responder.Responder
	recorder  *parser.Recorder
	history   []conversation.Message
	out       io.Writer
}

func (s *chatSession) turn(cmd *cobra.Command, text string) error {
	reply := s.responder.Reply(cmd.Context(), text, s.history, cfg.Language)

	if askShowMeta {
		topic := string(reply.Topic)
		if topic == "" {
			topic = "none"
		}
		fmt.Fprintf(s.out, "nanuq [%s, generated=%t]> %s\n", topic, reply.Generated, reply.Text)
	} else {
		fmt.Fprintf(s.out, "nanuq> %s\n", reply.Text)
	}

	now := time.Now()
	turn := []conversation.Message{
		{Role: conversation.RoleUser, Content: text, Timestamp: now},
		{Role: conversation.RoleAssistant, Content: reply.Text, Timestamp: now},
	}
	s.history = append(s.history, turn...)

	if s.recorder == nil {
		return nil
	}
	if err := s.recorder.Append(turn...); err != nil {
		return fmt.Errorf("failed to record conversation: %w", err)
	}
	return nil
}
