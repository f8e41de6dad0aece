// Package plugin discovers Lua plugins on disk and loads each into its own
// script host bound to an editor.
//
// # Plugin Structure
//
// Plugins are either single files or directories:
//
//	plugins/shout.lua
//
//	plugins/smart-quotes/
//	    plugin.json
//	    init.lua
//
// A directory without plugin.json uses init.lua, or plugin.lua, as its
// entry script and takes the directory name as the plugin name. The
// manifest looks like:
//
//	{
//	    "name": "smart-quotes",
//	    "version": "1.0.0",
//	    "main": "init.lua",
//	    "dependencies": ["typography"],
//	    "commands": [{"id": "SMART_QUOTES", "title": "Smart quotes"}]
//	}
//
// Search paths are scanned in order and the first plugin found under a
// name wins.
//
// # Loading
//
// Manager.Load runs a plugin's dependencies first, then its entry script
// in a fresh sandboxed host (see package lua for the folio module the
// script sees). Handlers the script registers stay active until the plugin
// is unloaded:
//
//	m := plugin.NewManager(e, plugin.WithConfig(cfg.Plugins))
//	if err := m.LoadAll(); err != nil {
//	    log.Warn("some plugins failed to load", "error", err)
//	}
//	defer m.UnloadAll()
package plugin
