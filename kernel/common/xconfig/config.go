package xconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/xuperchain/eeproxy/lib/utils"
)

const (
	// RootPathEnv overrides EEConf.RootPath when set
	RootPathEnv = "XEE_ROOT_PATH"

	DefMaxPendingCallbacks = 32
	DefGraphCacheSize      = 256
)

type EEConf struct {
	// Program running root directory
	RootPath string `yaml:"rootPath,omitempty"`
	// config file directory
	ConfDir string `yaml:"confDir,omitempty"`
	// log file directory
	LogDir string `yaml:"logDir,omitempty"`
	// log config file name
	LogConf string `yaml:"logConf,omitempty"`
	// host network: unix, tcp. empty means Address is a multiaddr
	Network string `yaml:"network,omitempty"`
	// host address, e.g. /tmp/ee.sock or /unix/tmp/ee.sock
	Address string `yaml:"address,omitempty"`
	// handshake session id, generated when empty
	UUID string `yaml:"uuid,omitempty"`
	// engine identity sent on handshake
	EngineType string `yaml:"engineType,omitempty"`
	// unacknowledged set value requests before draining
	MaxPendingCallbacks int `yaml:"maxPendingCallbacks,omitempty"`
	// contracts kept in the object graph cache
	GraphCacheSize int `yaml:"graphCacheSize,omitempty"`
	// metric switch
	MetricSwitch bool `yaml:"metricSwitch,omitempty"`
	// listen address of the /metrics endpoint, empty to disable
	MetricAddr string `yaml:"metricAddr,omitempty"`
}

func LoadEEConf(cfgFile string) (*EEConf, error) {
	cfg := GetDefEEConf()
	err := cfg.loadConf(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load engine config failed.err:%s", err)
	}

	// 修改根目录。优先级：1:XEE_ROOT_PATH 2:配置文件设置 3:当前bin文件上级目录
	if rt := os.Getenv(RootPathEnv); rt != "" {
		cfg.RootPath = rt
	}
	if cfg.UUID == "" {
		cfg.UUID = utils.GenSessionId()
	}

	return cfg, nil
}

func GetDefEEConf() *EEConf {
	return &EEConf{
		// 默认设置为当前执行目录的上级目录
		RootPath:            filepath.Dir(utils.GetCurExecDir()),
		ConfDir:             "conf",
		LogDir:              "logs",
		LogConf:             "log.yaml",
		Network:             "unix",
		Address:             "/tmp/ee.socket",
		EngineType:          "java",
		MaxPendingCallbacks: DefMaxPendingCallbacks,
		GraphCacheSize:      DefGraphCacheSize,
		MetricSwitch:        false,
	}
}

func (t *EEConf) GenDirAbsPath(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(t.RootPath, dir)
}

func (t *EEConf) GenConfFilePath(fName string) string {
	return filepath.Join(t.GenDirAbsPath(t.ConfDir), fName)
}

func (t *EEConf) loadConf(cfgFile string) error {
	if cfgFile == "" || !utils.FileIsExist(cfgFile) {
		return fmt.Errorf("config file set error.path:%s", cfgFile)
	}

	viperObj := viper.New()
	viperObj.SetConfigFile(cfgFile)
	err := viperObj.ReadInConfig()
	if err != nil {
		return fmt.Errorf("read config failed.path:%s,err:%v", cfgFile, err)
	}

	if err = viperObj.Unmarshal(t); err != nil {
		return fmt.Errorf("unmatshal config failed.path:%s,err:%v", cfgFile, err)
	}

	if t.MaxPendingCallbacks <= 0 {
		return fmt.Errorf("maxPendingCallbacks must be positive.value:%d", t.MaxPendingCallbacks)
	}
	return nil
}
