// sqlc expands .sqlc.base.yaml into one generation run per query file, so each
// query file gets its own package named after its directory.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const generatedConfig = "sqlc.yaml"

type options struct {
	base   string
	binary string
	dryRun bool
}

func main() {
	var opts options
	flag.StringVar(&opts.base, "base", ".sqlc.base.yaml", "base sqlc config")
	flag.StringVar(&opts.binary, "sqlc", "sqlc", "sqlc binary")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "print generated configs instead of running sqlc")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	base, err := loadBase(opts.base)
	if err != nil {
		return err
	}
	files, err := querySources(base.GetStringSlice("sql.0.source"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no query files matched sql.0.source")
	}

	engine := base.Sub("sql.0")
	if engine == nil {
		return errors.New("base config has no sql.0 entry")
	}
	engine.Set("schema", base.GetString("sql.0.schema"))

	defer func() { _ = os.Remove(generatedConfig) }()
	for _, file := range files {
		content, err := renderConfig(base.GetString("version"), engine, file)
		if err != nil {
			return errors.Wrapf(err, "render config for %s", file)
		}
		if opts.dryRun {
			fmt.Printf("# %s\n%s\n", file, content)
			continue
		}
		if err = os.WriteFile(generatedConfig, content, 0o644); err != nil {
			return errors.Wrap(err, "write sqlc.yaml")
		}
		if err = generate(opts.binary, generatedConfig); err != nil {
			return errors.Wrapf(err, "generate %s", file)
		}
		fmt.Printf("%s generated\n", file)
	}
	return nil
}

func loadBase(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return v, nil
}

func querySources(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matched, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "glob %s", pattern)
		}
		files = append(files, matched...)
	}
	return files, nil
}

// packageFor names the generated package after the directory holding the query file.
func packageFor(file string) (dir, pkg string) {
	dir, _ = filepath.Split(file)
	parts := strings.Split(strings.TrimSuffix(dir, string(os.PathSeparator)), string(os.PathSeparator))
	return dir, parts[len(parts)-1]
}

func renderConfig(version string, engine *viper.Viper, file string) ([]byte, error) {
	dir, pkg := packageFor(file)
	engine.Set("queries", file)
	engine.Set("gen.go.package", pkg)
	engine.Set("gen.go.out", dir)

	settings := engine.AllSettings()
	delete(settings, "source")

	return yaml.Marshal(map[string]interface{}{
		"version": version,
		"sql":     []interface{}{settings},
	})
}

func generate(binary, config string) error {
	out, err := exec.Command(binary, "generate", "--file", config).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "sqlc: %s", string(out))
	}
	return nil
}
