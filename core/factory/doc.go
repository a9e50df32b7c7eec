// Package factory provides a small generic registry used to instantiate
// modules from configuration. A module is a type string plus a map of raw
// settings; the registered factory decodes the settings into a typed struct
// and returns the implementation.
//
//	reg := factory.NewRegistry[metrics.ExportSink]()
//	_ = reg.Register("influx", func(conf map[string]any) (metrics.ExportSink, error) {
//	    var c struct{ URL string `json:"url"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newInfluxSink(c.URL), nil
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "influx", Conf: map[string]any{"url": "http://localhost:8086"}})
package factory
