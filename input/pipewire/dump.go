package pipewire

import (
	"context"
	"encoding/json"
	"os/exec"

	"github.com/noriah/fbspectrum/input"
	"github.com/pkg/errors"
)

type objectID int64

type objectType string

const (
	typeNode objectType = "PipeWire:Interface:Node"
	typePort objectType = "PipeWire:Interface:Port"
)

// Media classes of nodes that carry audio we can record.
const (
	classSink         = "Audio/Sink"
	classOutputStream = "Stream/Output/Audio"
)

type direction string

const (
	dirIn  direction = "in"
	dirOut direction = "out"
)

// object is one entry of pw-dump. Only the properties used to find sinks and
// our own ports are decoded; the raw properties are kept for matching our
// stream tags.
type object struct {
	ID   objectID   `json:"id"`
	Type objectType `json:"type"`
	Info struct {
		Props props `json:"props"`
	} `json:"info"`
}

type props struct {
	MediaClass string `json:"media.class"`
	NodeName   string `json:"node.name"`

	NodeID    objectID  `json:"node.id"`
	PortName  string    `json:"port.name"`
	Direction direction `json:"port.direction"`

	raw json.RawMessage
}

func (p *props) UnmarshalJSON(data []byte) error {
	type plain props
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}

	p.raw = append(json.RawMessage(nil), data...)

	return nil
}

// dump is the object graph printed by pw-dump.
type dump []object

func readDump(ctx context.Context) (dump, error) {
	out, err := exec.CommandContext(ctx, "pw-dump").Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, errors.Wrapf(err, "pw-dump: %s", exitErr.Stderr)
		}

		return nil, errors.Wrap(err, "failed to run pw-dump")
	}

	return parseDump(out)
}

func parseDump(data []byte) (dump, error) {
	var d dump
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, "failed to parse pw-dump output")
	}

	return d, nil
}

// filter returns the objects accepted by every fn.
func (d dump) filter(fns ...func(object) bool) dump {
	out := make(dump, 0, len(d))

next:
	for _, obj := range d {
		for _, fn := range fns {
			if !fn(obj) {
				continue next
			}
		}

		out = append(out, obj)
	}

	return out
}

// sinks lists the sinks and playback streams as capture devices.
func (d dump) sinks() []input.Device {
	nodes := d.filter(func(o object) bool {
		return o.Type == typeNode &&
			(o.Info.Props.MediaClass == classSink ||
				o.Info.Props.MediaClass == classOutputStream)
	})

	devices := make([]input.Device, len(nodes))
	for i, node := range nodes {
		devices[i] = AudioDevice{node.Info.Props.NodeName}
	}

	return devices
}

// streamPorts returns the input ports of the node tagged with tags, keyed by
// port name.
func (d dump) streamPorts(tags streamProps) (map[string]objectID, error) {
	nodes := d.filter(func(o object) bool {
		if o.Type != typeNode {
			return false
		}

		var got streamProps
		err := json.Unmarshal(o.Info.Props.raw, &got)
		return err == nil && got == tags
	})

	if len(nodes) == 0 {
		return nil, errors.Errorf("no node tagged %s in PipeWire", tags.StreamID)
	}

	node := nodes[0].ID

	ports := d.filter(func(o object) bool {
		return o.Type == typePort &&
			o.Info.Props.NodeID == node &&
			o.Info.Props.Direction == dirIn
	})

	if len(ports) == 0 {
		return nil, errors.Errorf("node %d has no input ports", node)
	}

	byName := make(map[string]objectID, len(ports))
	for _, p := range ports {
		byName[p.Info.Props.PortName] = p.ID
	}

	return byName, nil
}
