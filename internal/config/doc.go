// Package config provides configuration parsing for vmirror.
//
// The configuration is stored in vmirror.json. Every field is optional.
//
// # Configuration File Structure
//
//	{
//	  "idPrefix": "bh",
//	  "frameInterval": "16ms",
//	  "server": {
//	    "host": "localhost",
//	    "port": 7070,
//	    "title": "vmirror"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "vmirror"
//	  },
//	  "snapshot": {
//	    "bucket": "my-bucket",
//	    "prefix": "snapshots/",
//	    "region": "eu-west-1",
//	    "dir": "./snapshots"
//	  },
//	  "log": {
//	    "level": "info"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
