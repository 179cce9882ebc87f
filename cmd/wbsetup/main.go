package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"wbsetup/internal/app"
	"wbsetup/internal/cleanup"
	"wbsetup/internal/installer"
	"wbsetup/internal/store"
)

type ExitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

const (
	exitStore      = 2
	exitCopy       = 3
	exitResolution = 4
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprint(err.Error()))
		os.Exit(exitCode(err))
	}
}

// exitCode maps the failure classes callers script against to distinct
// process exit codes.
func exitCode(err error) int {
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	var accessErr *store.StoreAccessError
	var copyErr *installer.CopyError
	var resolutionErr *installer.ResolutionError
	switch {
	case errors.As(err, &accessErr):
		return exitStore
	case errors.As(err, &copyErr):
		return exitCopy
	case errors.As(err, &resolutionErr):
		return exitResolution
	}
	return 1
}

func newRootCmd() *cobra.Command {
	var configPath string
	var jsonOutput bool

	newSvc := func() (*app.Service, error) {
		return app.New(app.Options{ConfigPath: configPath})
	}

	cmd := &cobra.Command{
		Use:           "wbsetup",
		Short:         "Install, upgrade and uninstall Wrye Bash per game",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")

	cmd.AddCommand(newInstallCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newUpgradeCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newUninstallCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newPathCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newExtraCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newRulesCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newGamesCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newDoctorCmd(newSvc, &jsonOutput))
	cmd.AddCommand(newVersionCmd(&jsonOutput))

	return cmd
}

func newInstallCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var root string
	var source string
	var markers []string
	cmd := &cobra.Command{
		Use:     "install <game>",
		Aliases: []string{"i", "add"},
		Short:   "Install Wrye Bash for a game",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseMarkers(markers)
			if err != nil {
				return err
			}
			svc, err := newSvc()
			if err != nil {
				return err
			}
			defer svc.Close()
			res, err := svc.Install(context.Background(), args[0], root, source, parsed)
			if err != nil {
				return err
			}
			return printResult(*jsonOutput, res, fmt.Sprintf("installed %s into %s", res.Product, res.Root))
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "install root (defaults to the recorded or detected game directory)")
	cmd.Flags().StringVar(&source, "source", "", "unpacked release directory to copy from")
	cmd.Flags().StringArrayVar(&markers, "marker", nil, "extra key=value recorded with the install (repeatable)")
	return cmd
}

func newUpgradeCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var root string
	var source string
	cmd := &cobra.Command{
		Use:     "upgrade <game>",
		Aliases: []string{"up"},
		Short:   "Remove stale files of earlier releases and install over them",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			defer svc.Close()
			res, err := svc.Upgrade(context.Background(), args[0], root, source)
			if err != nil {
				return err
			}
			return printResult(*jsonOutput, res, fmt.Sprintf("upgraded %s in %s", res.Product, res.Root))
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "install root (defaults to the recorded game directory)")
	cmd.Flags().StringVar(&source, "source", "", "unpacked release directory to copy from")
	return cmd
}

func newUninstallCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall <game>...",
		Aliases: []string{"rm", "remove"},
		Short:   "Remove Wrye Bash files and recorded paths for games",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			defer svc.Close()
			items := svc.Uninstall(context.Background(), args)
			if *jsonOutput {
				if err := print(true, items, ""); err != nil {
					return err
				}
			} else {
				for _, item := range items {
					switch {
					case item.Err != nil:
						fmt.Println(color.Red.Sprintf("failed %s: %v", item.Product, item.Err))
					case item.Result.NoOp:
						fmt.Printf("%s was not installed\n", item.Product)
					default:
						if err := printResult(false, item.Result, fmt.Sprintf("uninstalled %s from %s", item.Product, item.Result.Root)); err != nil {
							return err
						}
					}
				}
			}
			for _, item := range items {
				if item.Err != nil {
					return &exitError{code: exitCode(item.Err), msg: fmt.Sprintf("uninstall failed for %s", item.Product)}
				}
			}
			return nil
		},
	}
}

func newPathCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	pathCmd := &cobra.Command{Use: "path", Aliases: []string{"paths"}, Short: "Inspect and edit recorded install paths"}

	getCmd := &cobra.Command{
		Use:   "get <game> [key]",
		Short: "Resolve one recorded value",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 2 {
				key = args[1]
			}
			svc, err := newSvc()
			if err != nil {
				return err
			}
			defer svc.Close()
			res, err := svc.PathGet(args[0], key)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, res, "")
			}
			if !res.Found {
				return &exitError{code: 1, msg: "not recorded"}
			}
			fmt.Printf("%s (%s)\n", res.Value, res.Namespace)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <game> <key> <value>",
		Short: "Record a value in the primary namespace",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			defer svc.Close()
			if err := svc.PathSet(args[0], args[1], args[2]); err != nil {
				return err
			}
			return print(*jsonOutput, map[string]string{"product": args[0], "key": args[1], "value": args[2]}, fmt.Sprintf("set %s %s", args[0], args[1]))
		},
	}

	listCmd := &cobra.Command{
		Use:     "list [game]",
		Aliases: []string{"ls"},
		Short:   "List recorded values",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			product := ""
			if len(args) == 1 {
				product = args[0]
			}
			svc, err := newSvc()
			if err != nil {
				return err
			}
			defer svc.Close()
			entries, err := svc.PathList(product)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, entries, "")
			}
			if len(entries) == 0 {
				fmt.Println("no recorded paths")
				return nil
			}
			for _, e := range entries {
				fmt.Println(color.Bold.Sprint(e.Product))
				keys := make([]string, 0, len(e.Values))
				for k := range e.Values {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Printf("  %s = %s (%s)\n", k, e.Values[k].Value, e.Values[k].Namespace)
				}
			}
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:     "rm <game> [key]",
		Aliases: []string{"remove", "delete"},
		Short:   "Forget recorded values without touching files",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 2 {
				key = args[1]
			}
			svc, err := newSvc()
			if err != nil {
				return err
			}
			defer svc.Close()
			if err := svc.PathRemove(args[0], key); err != nil {
				return err
			}
			msg := "forgot " + args[0]
			if key != "" {
				msg += " " + key
			}
			return print(*jsonOutput, map[string]string{"product": args[0], "key": key}, msg)
		},
	}

	pathCmd.AddCommand(getCmd, setCmd, listCmd, removeCmd)
	return pathCmd
}

func newExtraCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var source string
	extraCmd := &cobra.Command{Use: "extra", Short: "Manage install locations not tied to a game"}

	addCmd := &cobra.Command{
		Use:   "add <dir>",
		Short: "Install into an extra location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			defer svc.Close()
			added, err := svc.ExtraAdd(context.Background(), args[0], source)
			if err != nil {
				return err
			}
			return print(*jsonOutput, added, fmt.Sprintf("installed into %s (slot %d)", added.Root, added.Slot))
		},
	}
	addCmd.Flags().StringVar(&source, "source", "", "unpacked release directory to copy from")

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List extra locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			defer svc.Close()
			paths, err := svc.ExtraList()
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, paths, "")
			}
			if len(paths) == 0 {
				fmt.Println("no extra locations")
				return nil
			}
			for _, p := range paths {
				fmt.Printf("%d: %s (%s)\n", p.Slot, p.Root, p.Namespace)
			}
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:     "rm <slot>",
		Aliases: []string{"remove"},
		Short:   "Clean an extra location and forget it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := strconv.Atoi(args[0])
			if err != nil || slot < 1 {
				return fmt.Errorf("EXTRA_SLOT: invalid slot %q", args[0])
			}
			svc, err := newSvc()
			if err != nil {
				return err
			}
			defer svc.Close()
			res, err := svc.ExtraRemove(context.Background(), slot)
			if err != nil {
				return err
			}
			if res.NoOp {
				return print(*jsonOutput, res, fmt.Sprintf("slot %d is empty", slot))
			}
			return printResult(*jsonOutput, res, fmt.Sprintf("removed %s", res.Root))
		},
	}

	extraCmd.AddCommand(addCmd, listCmd, removeCmd)
	return extraCmd
}

func newRulesCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var since string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the cleanup rules applied on upgrade and uninstall",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			defer svc.Close()
			rules, err := svc.Rules(since)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, ruleViews(rules), "")
			}
			if len(rules) == 0 {
				fmt.Println("no rules")
				return nil
			}
			for _, r := range rules {
				fmt.Println(r.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "only rules introduced after this release tag")
	return cmd
}

func newGamesCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List supported games",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			defer svc.Close()
			games := svc.Games()
			if *jsonOutput {
				return print(true, games, "")
			}
			for _, g := range games {
				fmt.Printf("%-24s %s\n", g.ID, g.DisplayName)
			}
			return nil
		},
	}
}

func newDoctorCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"diag", "checkup"},
		Short:   "Run diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			defer svc.Close()
			report := svc.RunDoctor(context.Background())
			if *jsonOutput {
				return print(true, report, "")
			}
			if report.Healthy && len(report.Findings) == 0 {
				fmt.Println(color.Green.Sprint("healthy"))
				return nil
			}
			if report.Healthy {
				fmt.Println("healthy with warnings:")
			} else {
				fmt.Println("issues found:")
			}
			for _, f := range report.Findings {
				line := fmt.Sprintf("- [%s] %s", f.Code, f.Message)
				if f.Level == "error" {
					line = color.Red.Sprint(line)
				} else {
					line = color.Yellow.Sprint(line)
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

type ruleView struct {
	IntroducedIn string `json:"introduced_in"`
	Kind         string `json:"kind"`
	Target       string `json:"target"`
	Pattern      string `json:"pattern,omitempty"`
	Recursive    bool   `json:"recursive,omitempty"`
	When         string `json:"when,omitempty"`
}

func ruleViews(rules cleanup.Catalog) []ruleView {
	out := make([]ruleView, 0, len(rules))
	for _, r := range rules {
		v := ruleView{IntroducedIn: r.IntroducedIn, Kind: string(r.Kind), Target: r.Target, Pattern: r.Pattern, Recursive: r.Recursive}
		if r.When != nil {
			v.When = r.When.String()
		}
		out = append(out, v)
	}
	return out
}

func parseMarkers(items []string) (map[string]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(items))
	for _, item := range items {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("INS_MARKER: expected key=value, got %q", item)
		}
		out[key] = value
	}
	return out, nil
}

func printResult(jsonOutput bool, res *installer.Result, message string) error {
	if jsonOutput {
		return print(true, res, "")
	}
	if message != "" {
		fmt.Println(message)
	}
	if res.Cleanup != nil && len(res.Cleanup.Removed) > 0 {
		fmt.Printf("removed %d stale paths\n", len(res.Cleanup.Removed))
	}
	for _, w := range res.Warnings {
		fmt.Println(color.Yellow.Sprint("warning: " + w))
	}
	for _, f := range res.Failures {
		fmt.Println(color.Red.Sprint("failed: " + f))
	}
	return nil
}

func print(jsonOutput bool, payload any, message string) error {
	if jsonOutput {
		blob, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	}
	if message != "" {
		fmt.Println(message)
	}
	return nil
}
