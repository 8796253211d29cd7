package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/komsit37/fundwl/pkg/fw/types"
)

// YAMLSource loads groups from a YAML file or a directory of them.
//
//	columns: [code, name, est, chg%]
//	watchlist:
//	  - "000001"
//	  - code: "110022"
//	    amount: 10000
//	    cost: 2.1
//	  - name: 指数
//	    watchlist:
//	      - "161725"
type YAMLSource struct{}

type yamlFile struct {
	Columns   []string   `yaml:"columns"`
	Watchlist []yamlNode `yaml:"watchlist"`
}

// yamlNode is either a fund or a named nested group.
type yamlNode struct {
	Name      string     `yaml:"name"`
	Code      string     `yaml:"code"`
	Amount    float64    `yaml:"amount"`
	Cost      float64    `yaml:"cost"`
	Watchlist []yamlNode `yaml:"watchlist"`
}

// UnmarshalYAML accepts a bare scalar as a fund code. Codes are kept as
// written, so "000001" keeps its leading zeros.
func (n *yamlNode) UnmarshalYAML(v *yaml.Node) error {
	if v.Kind == yaml.ScalarNode {
		*n = yamlNode{Code: strings.TrimSpace(v.Value)}
		return nil
	}
	type plain yamlNode
	var p plain
	if err := v.Decode(&p); err != nil {
		return err
	}
	*n = yamlNode(p)
	return nil
}

func (n yamlNode) group() bool { return n.Watchlist != nil }

// Load expects spec to be a file or directory path.
func (YAMLSource) Load(ctx context.Context, spec any) ([]Group, error) { //nolint:revive // ctx reserved for future use
	path, ok := spec.(string)
	if !ok {
		return nil, fmt.Errorf("yaml source expects filepath string spec")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		groups, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		for i := range groups {
			if strings.TrimSpace(groups[i].Name) == "" {
				groups[i].Name = base
			}
		}
		return groups, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var all []Group
	for _, full := range files {
		groups, err := loadFile(full)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(path, full)
		if err != nil {
			rel = filepath.Base(full)
		}
		prefix := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		for i := range groups {
			if strings.TrimSpace(groups[i].Name) == "" {
				groups[i].Name = prefix
			} else if prefix != "" {
				groups[i].Name = prefix + "/" + groups[i].Name
			}
		}
		all = append(all, groups...)
	}
	return all, nil
}

func loadFile(path string) ([]Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	groups, err := parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return groups, nil
}

// parseYAML flattens nested groups into one Group per list of funds, named by
// the path of group names leading to it.
func parseYAML(data []byte) ([]Group, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Watchlist == nil {
		return nil, fmt.Errorf("invalid yaml: missing 'watchlist'")
	}

	var groups []Group
	var walk func(nodes []yamlNode, path []string) error
	walk = func(nodes []yamlNode, path []string) error {
		var entries []types.WatchlistEntry
		for _, n := range nodes {
			if n.group() {
				continue
			}
			if n.Code == "" {
				return fmt.Errorf("invalid yaml: fund without code in %q", strings.Join(path, "/"))
			}
			entries = append(entries, types.WatchlistEntry{
				FundCode: n.Code,
				Name:     n.Name,
				Amount:   n.Amount,
				Cost:     n.Cost,
			})
		}
		if len(entries) > 0 {
			groups = append(groups, Group{
				Name:    strings.Join(path, "/"),
				Columns: append([]string(nil), f.Columns...),
				Entries: entries,
			})
		}
		for _, n := range nodes {
			if !n.group() {
				continue
			}
			next := append([]string(nil), path...)
			if n.Name != "" {
				next = append(next, n.Name)
			}
			if err := walk(n.Watchlist, next); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(f.Watchlist, nil); err != nil {
		return nil, err
	}
	return groups, nil
}
