// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

/*
Package services adapts gateway components to suture.Service.

	HTTPServerService   *http.Server, ListenAndServe translated to Serve with
	                    graceful Shutdown on cancellation
	RunnerService       any func(ctx) error loop; used for the socket hub
	                    (Hub.RunWithContext) and the SSE janitor
	                    (Broker.RunJanitor)

The NATS event intake (eventbus.Subscriber) already implements Serve and
String and is added to the tree directly.

Example:

	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddMessagingService(services.NewJanitorService(broker))
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
*/
package services
