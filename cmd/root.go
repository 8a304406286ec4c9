package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bish-sh/bish/core/config"
	"github.com/bish-sh/bish/core/interp"
	"github.com/bish-sh/bish/core/sandbox"
	"github.com/bish-sh/bish/core/vnet"
)

var (
	flagCommand     string
	flagCwd         string
	flagJSON        bool
	flagErrExit     bool
	flagProfile     string
	flagEnvFile     string
	flagTimeout     time.Duration
	flagMaxCommands int
	flagAllowHosts  []string
)

var errorColor = color.New(color.FgRed, color.Bold)

// rootCmd runs a script from -c, a file operand, or stdin.
var rootCmd = &cobra.Command{
	Use:   "bish [flags] [script [args...]]",
	Short: "Hermetic bash-compatible script runner",
	Long: `bish runs bash-compatible scripts inside a sandbox: an in-memory
filesystem, virtual utilities, execution limits and no network unless a
host allow-list is given.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runScript,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		errorColor.Fprintf(os.Stderr, "bish: %v\n", err)
		os.Exit(2)
	}
}

func runScript(cmd *cobra.Command, args []string) error {
	var script string
	var name string
	var posArgs []string

	switch {
	case flagCommand != "":
		script = flagCommand
		name = "bish"
		posArgs = args
	case len(args) > 0:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		script = string(data)
		name = args[0]
		posArgs = args[1:]
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		script = string(data)
		name = "bish"
	}

	if flagErrExit {
		script = "set -e\n" + script
	}

	sb, err := buildSandbox(name)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if flagTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flagTimeout)
		defer cancel()
	}

	res := sb.RunArgs(ctx, script, posArgs)

	if flagJSON {
		out, err := json.Marshal(map[string]interface{}{
			"stdout":   res.Stdout,
			"stderr":   res.Stderr,
			"exitCode": res.ExitCode,
		})
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		os.Exit(res.ExitCode)
	}

	fmt.Print(res.Stdout)
	fmt.Fprint(os.Stderr, res.Stderr)
	os.Exit(res.ExitCode)
	return nil
}

func buildSandbox(name string) (*sandbox.Sandbox, error) {
	env := map[string]string{}
	if flagEnvFile != "" {
		fileEnv, err := godotenv.Read(flagEnvFile)
		if err != nil {
			return nil, fmt.Errorf("reading env file: %w", err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}

	if flagProfile != "" {
		profile, err := config.Load(flagProfile)
		if err != nil {
			return nil, fmt.Errorf("loading profile: %w", err)
		}
		if profile.Env == nil {
			profile.Env = map[string]string{}
		}
		for k, v := range env {
			profile.Env[k] = v
		}
		if flagCwd != "" {
			profile.Cwd = flagCwd
		}
		return sandbox.FromProfile(profile)
	}

	limits := interp.DefaultLimits()
	if flagMaxCommands > 0 {
		limits.MaxCommands = flagMaxCommands
	}
	var net *vnet.Client
	if len(flagAllowHosts) > 0 {
		net = vnet.New(flagAllowHosts, 0)
	}
	return sandbox.New(sandbox.Options{
		Cwd:    flagCwd,
		Env:    env,
		Limits: limits,
		Net:    net,
		Name:   name,
	}), nil
}

func init() {
	rootCmd.Flags().StringVarP(&flagCommand, "command", "c", "", "execute the given script text")
	rootCmd.Flags().StringVar(&flagCwd, "cwd", "", "initial working directory")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "emit {stdout, stderr, exitCode} as JSON")
	rootCmd.Flags().BoolVarP(&flagErrExit, "errexit", "e", false, "prepend `set -e` to the script")
	rootCmd.Flags().StringVar(&flagProfile, "profile", "", "sandbox profile yaml")
	rootCmd.Flags().StringVar(&flagEnvFile, "env-file", "", "load environment variables from a dotenv file")
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "wall-clock execution limit")
	rootCmd.Flags().IntVar(&flagMaxCommands, "max-commands", 0, "override the executed-command limit")
	rootCmd.Flags().StringSliceVar(&flagAllowHosts, "allow-host", nil, "allow outbound HTTP to this host (repeatable)")
}
