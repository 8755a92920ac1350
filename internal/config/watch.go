package config

import (
	"log"

	"github.com/fsnotify/fsnotify"
)

// Watch re-decodes the configuration whenever the config file changes and
// passes the result to onChange. Invalid edits go to onError and the previous
// configuration stays in effect. It reports false when no file was loaded.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) bool {
	if l.used == "" {
		return false
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		log.Printf("[CONFIG] Config file changed: %s", e.Name)

		cfg, err := l.decode()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
	return true
}
