package main

// General API documentation for swaggo. Run `swag init` to regenerate docs.
//
// @title           minerd API
// @version         1.0
// @description     HTTP serving surface for inference miners.
//
// @contact.name   minerd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
