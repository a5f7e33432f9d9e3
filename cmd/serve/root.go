package serve

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/ValentinKolb/mocker/api/common"
	"github.com/ValentinKolb/mocker/api/server"
	cmdUtil "github.com/ValentinKolb/mocker/cmd/util"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
)

// flags that override keys of the configuration file
var overrideFlags = []string{"host", "port", "log-level", "framing", "read-timeout", "write-timeout", "max-connections"}

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mock server",
	Long: `Start the mock server for the routes of the configuration file.
Every key of the configuration file can be overridden by environment variables
of the form MOCKER_<KEY> (e.g. MOCKER_PORT=9000), .env and .env.local are loaded
first. Flags given on the command line take precedence over both.`,
	Args: cobra.NoArgs,
	RunE: run,
}

func init() {
	cmdUtil.AddConfigFlag(ServeCmd)

	key := "host"
	ServeCmd.Flags().String(key, "127.0.0.1", cmdUtil.WrapString("The address the server listens on (tcp transport)"))

	key = "port"
	ServeCmd.Flags().Int(key, 8080, cmdUtil.WrapString("The port the server listens on (tcp transport)"))

	key = "log-level"
	ServeCmd.Flags().String(key, "info", cmdUtil.WrapString("The level at which logs will be output (debug, info, warn, error)"))

	key = "framing"
	ServeCmd.Flags().String(key, common.FramingContentLength, cmdUtil.WrapString("How the end of a message is detected (content-length, block)"))

	key = "read-timeout"
	ServeCmd.Flags().Int(key, 30, cmdUtil.WrapString("Time limit in seconds for reading a whole request, counted from its first read. 0 disables it"))

	key = "write-timeout"
	ServeCmd.Flags().Int(key, 30, cmdUtil.WrapString("Time limit in seconds for writing a whole response. 0 disables it"))

	key = "max-connections"
	ServeCmd.Flags().Int(key, 0, cmdUtil.WrapString("Maximum number of connections handled at the same time, 0 means unbounded"))
}

func run(cmd *cobra.Command, _ []string) error {
	cmdUtil.LoadEnvFiles()

	v := common.NewConfigViper()
	if err := cmdUtil.BindFlags(v, cmd, overrideFlags...); err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("config")
	ws, err := common.LoadWorkspace(v, path)
	if err != nil {
		return err
	}
	if err := common.InitLoggers(ws.Config.LogLevel); err != nil {
		return err
	}

	s, err := server.NewServer(ws.Config, nil, nil)
	if err != nil {
		return err
	}
	addr, err := s.Bind()
	if err != nil {
		return err
	}

	printBanner(cmd.OutOrStdout(), ws, s, addr.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := s.Serve(ctx); err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), s.Timers(), time.Since(start))
	return nil
}

// printBanner prints the configuration and the route table
func printBanner(w io.Writer, ws *common.Workspace, s *server.Server, addr string) {
	_, _ = fmt.Fprintf(w, "mocker serving %s (config %s)\n", addr, ws.Path)
	_, _ = fmt.Fprint(w, ws.Config.String())

	_, _ = fmt.Fprintf(w, "\nROUTES\n")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	routes := s.Router().Routes()
	if len(routes) == 0 {
		_, _ = fmt.Fprintln(tw, "  -\tnone\t")
	}
	for _, r := range routes {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", r.Method, r.Endpoint, r.Description)
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintln(w)
}

// printSummary prints the request and store timers collected while serving
func printSummary(w io.Writer, timers gometrics.Registry, uptime time.Duration) {
	_, _ = fmt.Fprintf(w, "\nshutdown after %s\n", uptime.Round(time.Second))

	var names []string
	timers.Each(func(name string, _ interface{}) {
		names = append(names, name)
	})
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "  TIMER\tCOUNT\tMEAN\tP99\t")
	for _, name := range names {
		t, ok := timers.Get(name).(gometrics.Timer)
		if !ok {
			continue
		}
		snap := t.Snapshot()
		_, _ = fmt.Fprintf(tw, "  %s\t%d\t%s\t%s\t\n", name, snap.Count(),
			time.Duration(snap.Mean()).Round(time.Microsecond),
			time.Duration(snap.Percentile(0.99)).Round(time.Microsecond))
	}
	_ = tw.Flush()
}
