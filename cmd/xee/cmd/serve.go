package cmd

import (
	"context"
	"math/big"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/xuperchain/eeproxy/kernel/common/xconfig"
	"github.com/xuperchain/eeproxy/kernel/common/xcontext"
	"github.com/xuperchain/eeproxy/kernel/ee/eeproxy"
	"github.com/xuperchain/eeproxy/kernel/ee/ipc"
	"github.com/xuperchain/eeproxy/kernel/ee/state"
	"github.com/xuperchain/eeproxy/kernel/ee/types"
	"github.com/xuperchain/eeproxy/lib/logs"
	"github.com/xuperchain/eeproxy/lib/metrics"
)

var ErrNoHostAddress = errors.New("host address not set")

type ServeCmd struct {
	BaseCmd
}

func GetServeCmd() *ServeCmd {
	serveCmdIns := new(ServeCmd)

	// 定义命令行参数变量
	var confPath string

	serveCmdIns.cmd = &cobra.Command{
		Use:     "serve",
		Short:   "Connect to the host and serve its requests.",
		Example: "xee serve --conf /home/rd/xee/conf/ee.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Serve(confPath)
		},
	}

	// 设置命令行参数并绑定变量
	serveCmdIns.cmd.Flags().StringVarP(&confPath, "conf", "c", "",
		"engine config file path")

	return serveCmdIns
}

// Serve connects to the host and runs the dispatch loop until the host
// closes the channel or the process is signalled.
func Serve(confPath string) error {
	conf, err := xconfig.LoadEEConf(confPath)
	if err != nil {
		return err
	}

	log, err := openLog(conf)
	if err != nil {
		return err
	}
	if conf.MetricSwitch {
		metrics.RegisterMetrics()
		if conf.MetricAddr != "" {
			go serveMetrics(conf.MetricAddr, log)
		}
	}

	conn, err := dial(conf)
	if err != nil {
		return err
	}
	graphs, err := state.NewGraphCache(conf.GraphCacheSize)
	if err != nil {
		return err
	}

	proxy := eeproxy.New(conn, &eeproxy.Config{
		EngineType:          conf.EngineType,
		MaxPendingCallbacks: conf.MaxPendingCallbacks,
	}, log)
	stub := NewStubHandler(graphs)
	proxy.SetInvokeHandler(stub)
	proxy.SetGetAPIHandler(stub)
	if err := proxy.Connect(conf.UUID); err != nil {
		proxy.Close()
		return err
	}
	log.Info("connected to host", "address", conf.Address, "uuid", conf.UUID, "type", conf.EngineType)

	// 收到退出信号时关闭连接，阻塞的读操作随之返回
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigChan)
	go func() {
		if sig, ok := <-sigChan; ok {
			log.Info("receive signal, closing", "signal", sig.String())
			conn.Close()
		}
	}()

	err = proxy.HandleMessages(context.Background())
	if cerr := proxy.Close(); cerr != nil && err == nil {
		log.Warn("close channel", "err", cerr)
	}
	if err != nil {
		log.Error("serve exit", "err", err)
		return err
	}
	log.Info("host closed the channel")
	return nil
}

func serveMetrics(addr string, log logs.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("serve metrics", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics server exit", "err", err)
	}
}

func openLog(conf *xconfig.EEConf) (logs.Logger, error) {
	lc, err := logs.LoadLogConf(conf.GenConfFilePath(conf.LogConf))
	if err != nil {
		lc = logs.GetDefLogConf()
	}
	driver, err := logs.OpenLog(lc, conf.GenDirAbsPath(conf.LogDir))
	if err != nil {
		return nil, err
	}
	return logs.NewLogger(driver, "")
}

// dial uses Network and Address, or Address alone as a multiaddr when
// Network is empty.
func dial(conf *xconfig.EEConf) (net.Conn, error) {
	if conf.Address == "" {
		return nil, ErrNoHostAddress
	}
	if conf.Network == "" {
		return ipc.DialAddr(conf.Address)
	}
	return ipc.Dial(conf.Network, conf.Address)
}

// StubHandler answers every invoke with MethodNotFound and every get API
// request with an empty method list.
type StubHandler struct {
	graphs *state.GraphCache
}

func NewStubHandler(graphs *state.GraphCache) *StubHandler {
	return &StubHandler{graphs: graphs}
}

func (h *StubHandler) GetAPI(ctx xcontext.XContext, path string) ([]*types.Method, error) {
	ctx.GetLog().Info("getAPI", "path", path)
	return []*types.Method{}, nil
}

func (h *StubHandler) Invoke(ctx xcontext.XContext, req *eeproxy.InvokeRequest) (*eeproxy.InvokeResult, error) {
	st, err := state.FromContext(ctx, h.graphs, req, ctx.GetLog())
	if err != nil {
		return nil, err
	}
	ctx.GetLog().Info("invoke", "code", req.Code, "method", req.Method, "to", req.To, "eid", req.EID)
	if err := st.Log(types.LogWarn, "method not found: "+req.Method); err != nil {
		return nil, err
	}
	return &eeproxy.InvokeResult{
		Status:   types.StatusMethodNotFound,
		StepUsed: big.NewInt(0),
	}, nil
}
