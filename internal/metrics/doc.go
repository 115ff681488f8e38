// Package metrics records build observations.
//
// Components take a Recorder and default to NoopRecorder, so no call site
// needs a nil check:
//
//	s := site.New(deps) // deps.Recorder nil means NoopRecorder
//
// The build command swaps in a PrometheusRecorder when --metrics-file is
// given and writes the registry in text format once the build finished:
//
//	rec := metrics.NewPrometheusRecorder(nil)
//	// ... run the build with rec ...
//	_ = rec.WriteTextfile(path)
//
// The file suits node_exporter's textfile collector, which is the usual way
// to scrape a short-lived process such as a cron-driven site build.
package metrics
