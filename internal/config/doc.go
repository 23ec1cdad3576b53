// Package config provides configuration parsing for resume servers.
//
// The configuration is stored in resume.json or resume.toml at the
// project root; the file extension selects the format. This package
// handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "address": "localhost:3000",
//	    "readTimeout": "10s",
//	    "maxBodyBytes": 1048576
//	  },
//	  "snapshot": {
//	    "backend": "s3",
//	    "ttl": "30m",
//	    "bucket": "my-bucket",
//	    "prefix": "snapshots/",
//	    "region": "eu-west-1"
//	  },
//	  "log": {"level": "debug", "format": "json"},
//	  "metrics": {"enabled": true, "namespace": "resume"},
//	  "tracing": {"enabled": true}
//	}
//
// # Usage
//
//	cfg, err := config.LoadFromDir(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Address:", cfg.Server.Address)
package config
