package filesystem

import (
	"os"
	"os/exec"
	"strings"
	"subuk/ec2resize/compute"
	"subuk/ec2resize/util"

	"github.com/rs/zerolog"
)

const EnvPrefix = "EC2RESIZE_"

type scriptedEventSubscription struct {
	Event     string
	Script    string
	Mandatory bool
}

// ScriptedEventBroker runs shell hooks subscribed to workflow events. Event
// fields are passed as EC2RESIZE_<FIELD> environment variables.
type ScriptedEventBroker struct {
	logger zerolog.Logger
	subs   []scriptedEventSubscription
}

func NewScriptedEventBroker(logger zerolog.Logger) *ScriptedEventBroker {
	return &ScriptedEventBroker{
		logger: logger,
		subs:   []scriptedEventSubscription{},
	}
}

func (epub *ScriptedEventBroker) Subscribe(event, script string, mandatory bool) {
	epub.subs = append(epub.subs, scriptedEventSubscription{
		Event:     event,
		Script:    script,
		Mandatory: mandatory,
	})
}

func (epub *ScriptedEventBroker) Publish(event compute.Event) error {
	for _, sub := range epub.subs {
		if sub.Event != event.Name() {
			continue
		}
		cmd := exec.Command("sh", "-c", sub.Script)
		cmd.Env = os.Environ()
		for key, value := range event.Plain() {
			cmd.Env = append(cmd.Env, EnvPrefix+strings.ToUpper(key)+"="+value)
		}
		epub.logger.Info().
			Str("script", sub.Script).
			Str("event", event.Name()).
			Bool("mandatory", sub.Mandatory).
			Msg("running event script")

		out, err := cmd.CombinedOutput()
		if err != nil {
			if sub.Mandatory {
				return util.NewError(err, "mandatory %s script failed: %s", event.Name(), strings.TrimSpace(string(out)))
			}
			epub.logger.Warn().Err(err).
				Str("out", string(out)).
				Str("script", sub.Script).
				Str("event", event.Name()).
				Msg("cannot run script")
		}
	}
	return nil
}
