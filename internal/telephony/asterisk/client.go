// Package asterisk speaks the Asterisk Manager Interface (AMI) over
// TCP. AMI is a line-oriented protocol: an action is a block of
// "Key: Value" lines ended by a blank line, and the manager answers
// with a matching block whose Response header is Success or Error.
package asterisk

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"switchboard/internal/platform/config"
)

// Client originates calls through one short-lived AMI session per
// call: connect, log in, originate, log off. Call volume here is a
// human clicking a contact, so a persistent manager connection buys
// nothing and a stale one would cost a failed dial.
type Client struct {
	cfg    config.AMIConfig
	logger *slog.Logger
}

// NewClient builds an AMI client from static PBX configuration.
func NewClient(cfg config.AMIConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger}
}

// Originate asks the PBX to ring the extension's channel and, once
// answered, connect it to the number through the configured dialplan
// context. A single attempt; any failure is returned to the caller
// unretried.
func (c *Client) Originate(ctx context.Context, extension, number string) error {
	timeout := c.cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	conn, err := net.DialTimeout("tcp", c.cfg.Address(), timeout)
	if err != nil {
		return fmt.Errorf("connect to manager: %w", err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(timeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	session := &session{conn: conn, reader: textproto.NewReader(bufio.NewReader(conn))}

	// The manager greets with a single banner line before the first
	// action block.
	if _, err := session.reader.ReadLine(); err != nil {
		return fmt.Errorf("read banner: %w", err)
	}

	if err := session.roundTrip(map[string]string{
		"Action":   "Login",
		"Username": c.cfg.Username,
		"Secret":   c.cfg.Secret,
		"Events":   "off",
	}); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer session.logoff(c.logger)

	if err := session.roundTrip(map[string]string{
		"Action":   "Originate",
		"Channel":  c.cfg.Channel + "/" + extension,
		"Exten":    number,
		"Context":  c.cfg.Context,
		"Priority": strconv.Itoa(c.cfg.Priority),
		"CallerID": number,
	}); err != nil {
		return fmt.Errorf("originate: %w", err)
	}
	return nil
}

type session struct {
	conn   net.Conn
	reader *textproto.Reader
}

// roundTrip writes one action block and consumes the response block,
// failing unless the manager reported Success.
func (s *session) roundTrip(action map[string]string) error {
	var b strings.Builder
	// Action goes first; key order beyond that is irrelevant to AMI.
	b.WriteString("Action: " + action["Action"] + "\r\n")
	for key, value := range action {
		if key == "Action" {
			continue
		}
		b.WriteString(key + ": " + value + "\r\n")
	}
	b.WriteString("\r\n")

	if _, err := s.conn.Write([]byte(b.String())); err != nil {
		return fmt.Errorf("write action: %w", err)
	}

	response, message, err := s.readResponse()
	if err != nil {
		return err
	}
	if response != "Success" {
		if message == "" {
			message = "manager refused action"
		}
		return fmt.Errorf("%s", message)
	}
	return nil
}

func (s *session) readResponse() (response, message string, err error) {
	for {
		line, err := s.reader.ReadLine()
		if err != nil {
			return "", "", fmt.Errorf("read response: %w", err)
		}
		if line == "" {
			return response, message, nil
		}
		if value, ok := strings.CutPrefix(line, "Response: "); ok {
			response = value
		}
		if value, ok := strings.CutPrefix(line, "Message: "); ok {
			message = value
		}
	}
}

// logoff is best-effort; the deferred Close tears the session down
// regardless.
func (s *session) logoff(logger *slog.Logger) {
	if _, err := s.conn.Write([]byte("Action: Logoff\r\n\r\n")); err != nil {
		logger.Debug("manager logoff failed", "error", err)
	}
}
