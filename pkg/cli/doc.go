// Package cli implements the mockstore command-line interface.
//
//	mockstore init                  write an example mockstore.yaml
//	mockstore validate              check a configuration file
//	mockstore serve                 serve the GraphQL endpoint
//	mockstore query -q '{ ... }'    run operations against a fresh store
//	mockstore schema                print the configuration JSON Schema
//	mockstore version               show build information
package cli
