package cmd

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/annchain/badium/common/files"
	"github.com/annchain/badium/common/utilfuncs"
	"github.com/annchain/badium/core"
	"github.com/annchain/badium/mylog"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	LogDir    = "log"
	DataDir   = "data"
	ConfigDir = "config"
)

func rootDir() string {
	return viper.GetString("dir.root")
}

// initLogger uses viper to get the log path and level. It should be called by all other commands
func initLogger() {
	doStdout := viper.GetBool("log.stdout")
	doFile := viper.GetBool("log.file")
	logdir := files.FixPrefixPath(rootDir(), viper.GetString("dir.log"))

	var writers []io.Writer
	if doFile {
		folderPath, err := filepath.Abs(logdir)
		utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing log path: %s", logdir))

		abspath, err := filepath.Abs(path.Join(logdir, "run"))
		utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing log file path: %s", logdir))

		err = os.MkdirAll(folderPath, os.ModePerm)
		utilfuncs.PanicIfError(err, fmt.Sprintf("Error on creating log dir: %s", folderPath))
		writers = append(writers, mylog.RotateLog(abspath))
		fmt.Println("Will be logged to " + abspath + ".log")
	}
	if doStdout {
		writers = append(writers, os.Stdout)
	}
	switch len(writers) {
	case 0:
		logrus.SetOutput(io.Discard)
	case 1:
		logrus.SetOutput(writers[0])
	default:
		logrus.SetOutput(io.MultiWriter(writers...))
	}

	level, ok := mylog.ParseLevel(viper.GetString("log.level"))
	if !ok {
		fmt.Println("Unknown level: ", viper.GetString("log.level"), "Set to INFO")
	}
	logrus.SetLevel(level)

	Formatter := new(logrus.TextFormatter)
	Formatter.ForceColors = doStdout
	Formatter.TimestampFormat = "2006-01-02 15:04:05.000000"
	Formatter.FullTimestamp = true
	logrus.StandardLogger().SetFormatter(Formatter)

	if viper.GetBool("log.line_number") {
		logrus.SetReportCaller(true)
	}
	if viper.GetBool("multifile_by_level") && doFile {
		writerMap := lfshook.WriterMap{}
		for _, level := range logrus.AllLevels {
			abspath, err := filepath.Abs(path.Join(logdir, level.String()))
			utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing log file path: %s", logdir))
			writerMap[level] = mylog.RotateLog(abspath)
		}
		logrus.AddHook(lfshook.NewHook(writerMap, Formatter))
	}
	if doFile {
		core.SetReceiptLogger(mylog.InitLogger(logrus.StandardLogger(), logdir, "receipts"))
	}
	logrus.Debug("Logger initialized.")
}

func ensureFolder() {
	err := files.EnsureFolders(rootDir(), viper.GetString("dir.log"), viper.GetString("dir.data"), viper.GetString("dir.config"))
	utilfuncs.PanicIfError(err, "creating folders")
}
