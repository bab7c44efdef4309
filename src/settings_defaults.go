package main

import (
	"context"
	"log"
	"os"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// DefaultsFile is the YAML shape of config/settings.defaults.yaml: a flat
// map from "<genName>.<shortName>" to a textual default value, following
// the configuration convention of joaodalvi-oci-arm-provisioner and
// 99souls-ariadne (gopkg.in/yaml.v3 for the format).
type DefaultsFile struct {
	Defaults map[string]string `yaml:"defaults"`
}

// loadDefaultsFile reads and parses path, returning an empty DefaultsFile
// if the file does not exist (every spec already carries a built-in
// default).
func loadDefaultsFile(path string) (DefaultsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultsFile{Defaults: map[string]string{}}, nil
		}
		return DefaultsFile{}, err
	}
	var f DefaultsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return DefaultsFile{}, err
	}
	if f.Defaults == nil {
		f.Defaults = map[string]string{}
	}
	return f, nil
}

// applyDefaultsFile pushes every matching key from f into store.
func applyDefaultsFile(store *SettingsStore, genName string, f DefaultsFile) {
	for _, spec := range store.Specs() {
		key := defaultsFileKey(genName, spec.ShortName)
		if raw, ok := f.Defaults[key]; ok {
			store.ApplyDefault(spec.ShortName, raw)
		}
	}
}

// defaultsWatcherWorker watches path with fsnotify (as joaodalvi-oci-arm-
// provisioner and 99souls-ariadne both do for their own config files) and
// re-applies it to every given store whenever it changes, so an operator's
// local override is picked up without a restart — standing in for "may be
// mutated by other processes" from spec.md §5.
func defaultsWatcherWorker(ctx context.Context, path string, stores map[string]*SettingsStore) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("settings defaults watcher: %v\n", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		log.Printf("settings defaults watcher: not watching %s: %v\n", path, err)
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			f, err := loadDefaultsFile(path)
			if err != nil {
				log.Printf("settings defaults watcher: reload failed: %v\n", err)
				continue
			}
			for genName, store := range stores {
				applyDefaultsFile(store, genName, f)
			}
			log.Println("settings defaults watcher: reloaded", path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("settings defaults watcher: %v\n", err)

		case <-ctx.Done():
			return
		}
	}
}
