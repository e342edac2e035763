package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/any-hub/symhub/internal/cache"
	"github.com/any-hub/symhub/internal/config"
	"github.com/any-hub/symhub/internal/logging"
	"github.com/any-hub/symhub/internal/proxy"
	"github.com/any-hub/symhub/internal/server"
	"github.com/any-hub/symhub/internal/server/routes"
	"github.com/any-hub/symhub/internal/symsrv"
	"github.com/any-hub/symhub/internal/transport"
	"github.com/any-hub/symhub/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
	fetch       *fetchRequest
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	// .env 只补充未设置的环境变量，文件不存在时忽略。
	_ = godotenv.Load()

	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(loggerOptions(cfg.Global))
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	registry, err := server.NewServerRegistry(cfg)
	if err != nil {
		fmt.Fprintf(stdErr, "构建服务器列表失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["servers"] = registry.Servers().String()
		fields["transport"] = cfg.Global.Transport
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动遵循“配置 → 服务器列表 → 传输层 → 磁盘缓存 → Retriever”顺序，
	// CLI 单次获取与 HTTP 服务共享同一套组件。
	tr, err := transport.New(cfg.Global.Transport, transport.Options{
		Timeout:   cfg.Global.UpstreamTimeout.DurationValue(),
		UserAgent: cfg.Global.UserAgent,
	})
	if err != nil {
		fmt.Fprintf(stdErr, "初始化传输层失败: %v\n", err)
		return 1
	}
	store := cache.NewStore()
	retriever, err := symsrv.NewRetriever(symsrv.Options{
		Transport:      tr,
		Store:          store,
		Logger:         logger,
		AttemptTimeout: cfg.Global.AttemptTimeout.DurationValue(),
	})
	if err != nil {
		fmt.Fprintf(stdErr, "初始化 Retriever 失败: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.fetch != nil {
		return runFetch(ctx, retriever, registry.Servers(), opts.fetch, logger)
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["servers"] = registry.Len()
	fields["listen_port"] = cfg.Global.ListenPort
	fields["transport"] = cfg.Global.Transport
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	handler := proxy.NewHandler(retriever, store, logger)
	if err := startHTTPServer(ctx, cfg, registry, handler, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// loggerOptions 把全局配置中的日志字段转换为 logging.Options。
func loggerOptions(global config.GlobalConfig) logging.Options {
	return logging.Options{
		Level:      global.LogLevel,
		FilePath:   global.LogFilePath,
		MaxSize:    global.LogMaxSize,
		MaxBackups: global.LogMaxBackups,
		Compress:   global.LogCompress,
	}
}

// runFetch 执行一次阻塞式获取并输出状态与缓存路径；全部服务器 404 时返回 3。
func runFetch(ctx context.Context, retriever *symsrv.Retriever, servers symsrv.ServerList, req *fetchRequest, logger *logrus.Logger) int {
	result, err := retriever.Retrieve(ctx, symsrv.Request{
		Info:    req.info,
		Name:    req.name,
		Servers: servers,
	})
	fields := logging.RetrievalFields(req.name, req.info.Hash(), req.info.Kind())
	fields["action"] = "fetch_cli"
	if err != nil {
		logger.WithFields(fields).WithError(err).Warn("fetch_failed")
		fmt.Fprintf(stdErr, "获取 %s 失败: %v\n", req.name, err)
		if errors.Is(err, symsrv.ErrFileNotFound) {
			return 3
		}
		return 1
	}

	fmt.Fprintf(stdOut, "%s\t%s\n", result.Status, result.Entry.FilePath)
	if result.Entry.Digest != "" {
		fmt.Fprintf(stdOut, "blake3\t%s\n", result.Entry.Digest)
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("symhub", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
		fetch      fetchFlags
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 SYMHUB_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")
	fetch.register(fs)

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("SYMHUB_CONFIG")
	if configFlag != "" {
		path = configFlag
	}

	req, err := fetch.build(fs)
	if err != nil {
		return cliOptions{}, err
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
		fetch:       req,
	}, nil
}

func startHTTPServer(ctx context.Context, cfg *config.Config, registry *server.ServerRegistry, proxyHandler server.ProxyHandler, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Registry:   registry,
		Proxy:      proxyHandler,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterServerRoutes(app, registry, cfg.Global.Transport)

	go func() {
		<-ctx.Done()
		logger.WithField("action", "shutdown").Info("Fiber 服务停止")
		_ = app.Shutdown()
	}()

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
