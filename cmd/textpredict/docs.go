package main

// General API documentation for swaggo. Build with -tags=swagger to serve it
// from `textpredict serve` under /swagger/.
//
// @title           textpredict API
// @version         1.0
// @description     HTTP surface of an on-device text prediction session.
//
// @BasePath  /
//
// @schemes http
