package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandInterview Command = "interview"
	CommandSpeak     Command = "speak"
	CommandSubmit    Command = "submit"
	CommandSkip      Command = "skip"
	CommandNext      Command = "next"
	CommandEnd       Command = "end"
	CommandStatus    Command = "status"
	CommandDevices   Command = "devices"
	CommandDoctor    Command = "doctor"
	CommandVersion   Command = "version"
	CommandHelp      Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandInterview: {},
	CommandSpeak:     {},
	CommandSubmit:    {},
	CommandSkip:      {},
	CommandNext:      {},
	CommandEnd:       {},
	CommandStatus:    {},
	CommandDevices:   {},
	CommandDoctor:    {},
	CommandVersion:   {},
	CommandHelp:      {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  interview  Start a mock interview session
  speak      Start recording an answer to the current question
  submit     Stop recording and submit the answer for evaluation
  skip       Skip the current question without answering
  next       Advance past the current feedback to the next question
  end        End the active session early
  status     Print current session state
  devices    List available input devices
  doctor     Run configuration and environment checks
  version    Print version information
  help       Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/viva/config.conf)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
