package pipewire

import (
	"bufio"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// port is one line of pw-link output: "<id> <node>:<port>".
type port struct {
	ID   objectID
	Node string
	Name string // usually {input,output,monitor}_{FL,FR,MONO}
}

func parsePort(line string) (port, error) {
	idStr, full, ok := strings.Cut(strings.TrimSpace(line), " ")
	if !ok {
		return port{}, errors.Errorf("malformed pw-link line %q", line)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return port{}, errors.Wrapf(err, "malformed pw-link id %q", idStr)
	}

	node, name, ok := strings.Cut(full, ":")
	if !ok {
		return port{}, errors.Errorf("malformed pw-link port %q", full)
	}

	return port{ID: objectID(id), Node: node, Name: name}, nil
}

// channel returns the channel suffix of the port name, FL for monitor_FL.
func (p port) channel() string {
	_, ch, _ := strings.Cut(p.Name, "_")
	return ch
}

// match picks the one of our input ports that should record p. A mono
// stream records every channel.
func (p port) match(ours map[string]objectID) (port, bool) {
	if len(ours) == 1 {
		for name, id := range ours {
			return port{ID: id, Name: name}, true
		}
	}

	if ch := p.channel(); ch != "" {
		name := "input_" + ch
		if id, ok := ours[name]; ok {
			return port{ID: id, Name: name}, true
		}
	}

	return port{}, false
}

// linkEvent is a port appearing or disappearing in pw-link's monitor.
type linkEvent struct {
	port  port
	added bool
}

// parseEvent reads one monitor line. Lines start with '=' for ports present
// at startup, '+' for added and '-' for removed ports.
func parseEvent(line string) (linkEvent, bool) {
	if line == "" {
		return linkEvent{}, false
	}

	var added bool
	switch line[0] {
	case '=', '+':
		added = true
	case '-':
	default:
		return linkEvent{}, false
	}

	p, err := parsePort(line[1:])
	if err != nil {
		return linkEvent{}, false
	}

	return linkEvent{port: p, added: added}, true
}

func link(ctx context.Context, out, in objectID) error {
	cmd := exec.CommandContext(ctx, "pw-link", "-L",
		strconv.FormatInt(int64(out), 10), strconv.FormatInt(int64(in), 10))

	if _, err := cmd.Output(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return errors.Wrapf(err, "pw-link: %s", exitErr.Stderr)
		}

		return errors.Wrap(err, "failed to run pw-link")
	}

	return nil
}

// monitorOutputs streams output port events until ctx is done or pw-link
// exits.
func monitorOutputs(ctx context.Context, log zerolog.Logger, events chan<- linkEvent) error {
	cmd := exec.CommandContext(ctx, "pw-link", "-mIo")

	o, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to get stdout pipe")
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start pw-link monitor")
	}

	scanner := bufio.NewScanner(o)
	for scanner.Scan() {
		ev, ok := parseEvent(scanner.Text())
		if !ok {
			log.Debug().Str("line", scanner.Text()).Msg("skipped pw-link line")
			continue
		}

		select {
		case <-ctx.Done():
			cmd.Wait()
			return ctx.Err()
		case events <- ev:
		}
	}

	return errors.Wrap(cmd.Wait(), "pw-link monitor exited")
}
