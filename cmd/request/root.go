package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/mocker/api/client"
	"github.com/ValentinKolb/mocker/api/common"
	"github.com/ValentinKolb/mocker/api/proto"
	cmdUtil "github.com/ValentinKolb/mocker/cmd/util"
	"github.com/spf13/cobra"
)

var RequestCmd = &cobra.Command{
	Use:   "request METHOD TARGET",
	Short: "Send a single request to a running mock server",
	Long: `Send one request over the wire protocol and print the raw response.

Example:
  mocker request POST /users --content-type application/json --body '{"id": 1}'
  mocker request GET '/users?id=1'`,
	Args: cobra.ExactArgs(2),
	RunE: run,
}

func init() {
	key := "endpoint"
	RequestCmd.Flags().String(key, "127.0.0.1:8080", cmdUtil.WrapString("The address of the server (host:port, or the socket path for the unix transport)"))

	key = "transport"
	RequestCmd.Flags().String(key, common.TransportTCP, cmdUtil.WrapString("The transport to use (tcp, unix)"))

	key = "framing"
	RequestCmd.Flags().String(key, common.FramingContentLength, cmdUtil.WrapString("The framing of the server (content-length, block)"))

	key = "timeout"
	RequestCmd.Flags().Int(key, 10, cmdUtil.WrapString("The timeout in seconds of the request"))

	key = "header"
	RequestCmd.Flags().StringArrayP(key, "H", nil, cmdUtil.WrapString("A header in the form name:value, may be repeated"))

	key = "body"
	RequestCmd.Flags().StringP(key, "d", "", cmdUtil.WrapString("The body of the request"))

	key = "content-type"
	RequestCmd.Flags().String(key, "", cmdUtil.WrapString("The Content-Type of the body"))
}

// buildRequest creates the request described by the arguments and flags
func buildRequest(cmd *cobra.Command, args []string) (*proto.Request, error) {
	method, err := proto.ParseMethod(args[0])
	if err != nil {
		return nil, err
	}
	req := proto.NewRequest(method, args[1], proto.DefaultVersion)

	headers, _ := cmd.Flags().GetStringArray("header")
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header '%s' (expected name:value)", h)
		}
		req.AddHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if contentType, _ := cmd.Flags().GetString("content-type"); contentType != "" {
		req.SetHeader(proto.HeaderContentType, contentType)
	}
	if body, _ := cmd.Flags().GetString("body"); body != "" {
		req.SetBody([]byte(body))
	}
	return req, nil
}

func run(cmd *cobra.Command, args []string) error {
	req, err := buildRequest(cmd, args)
	if err != nil {
		return err
	}

	endpoint, _ := cmd.Flags().GetString("endpoint")
	transport, _ := cmd.Flags().GetString("transport")
	framing, _ := cmd.Flags().GetString("framing")
	timeout, _ := cmd.Flags().GetInt("timeout")

	c := client.NewClient(client.Config{
		Transport: transport,
		Endpoint:  endpoint,
		Framing:   framing,
		Timeout:   time.Duration(timeout) * time.Second,
	})
	res, err := c.Do(req)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.String())
	return nil
}
