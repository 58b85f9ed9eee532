package logs

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/xuperchain/log15"
)

// LogBufSize define log buffer channel size
const LogBufSize = 102400

// OpenLog create and open log stream using LogConfig. A non empty logDir
// overrides lc.Filepath.
func OpenLog(lc *LogConfig, logDir string) (LogDriver, error) {
	if logDir == "" {
		logDir = lc.Filepath
	}
	infoFile := filepath.Join(logDir, lc.Filename+".log")
	wfFile := filepath.Join(logDir, lc.Filename+".log.wf")
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create log dir failed.path:%s,err:%v", logDir, err)
	}

	lfmt := log.LogfmtFormat()
	switch lc.Fmt {
	case "json":
		lfmt = log.JsonFormat()
	}

	xlog := log.New("module", lc.Module)
	lvLevel, err := log.LvlFromString(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("log level error.err:%v", err)
	}
	// set lowest level as level limit, this may improve performance
	xlog.SetLevelLimit(lvLevel)

	// RotateFileHandler only valid if `RotateInterval` and `RotateBackups` greater than 0
	var (
		nmHandler log.Handler
		wfHandler log.Handler
	)
	if lc.RotateInterval > 0 && lc.RotateBackups > 0 {
		nmHandler = log.Must.RotateFileHandler(
			infoFile, lfmt, lc.RotateInterval, lc.RotateBackups)
		wfHandler = log.Must.RotateFileHandler(
			wfFile, lfmt, lc.RotateInterval, lc.RotateBackups)
	} else {
		nmHandler = log.Must.FileHandler(infoFile, lfmt)
		wfHandler = log.Must.FileHandler(wfFile, lfmt)
	}

	if lc.Async {
		bufSize := lc.BufSize
		if bufSize <= 0 {
			bufSize = LogBufSize
		}
		nmHandler = log.BufferedHandler(bufSize, nmHandler)
		wfHandler = log.BufferedHandler(bufSize, wfHandler)
	}

	// prints log level between `lvLevel` to Info to common log
	nmfileh := log.BoundLvlFilterHandler(lvLevel, log.LvlError, nmHandler)
	// prints log level greater or equal to Warn to wf log
	wffileh := log.LvlFilterHandler(log.LvlWarn, wfHandler)

	var lhd log.Handler
	if lc.Console {
		hstd := log.StreamHandler(os.Stderr, lfmt)
		lhd = log.SyncHandler(log.MultiHandler(hstd, nmfileh, wffileh))
	} else {
		lhd = log.SyncHandler(log.MultiHandler(nmfileh, wffileh))
	}
	xlog.SetHandler(lhd)

	return xlog, nil
}

// OpenConsoleLog logs to stderr only, used before config is loaded.
func OpenConsoleLog(module, level string) (LogDriver, error) {
	lvLevel, err := log.LvlFromString(level)
	if err != nil {
		return nil, fmt.Errorf("log level error.err:%v", err)
	}
	xlog := log.New("module", module)
	xlog.SetLevelLimit(lvLevel)
	xlog.SetHandler(log.LvlFilterHandler(lvLevel, log.StreamHandler(os.Stderr, log.LogfmtFormat())))
	return xlog, nil
}

// NewDiscardLogger drops every record. For unit testing.
func NewDiscardLogger() Logger {
	xlog := log.New()
	xlog.SetHandler(log.DiscardHandler())
	lf, _ := NewLogger(xlog, "")
	return lf
}
