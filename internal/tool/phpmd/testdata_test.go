package phpmd

// sampleReport is trimmed phpmd 2.15 output for a controller with two findings.
const sampleReport = `{
  "version": "@package_version@",
  "package": "phpmd",
  "timestamp": "2024-03-01T10:00:00+00:00",
  "files": [
    {
      "file": "/var/www/html/src/Controller/CartController.php",
      "violations": [
        {
          "beginLine": 10,
          "endLine": 14,
          "package": "App\\Controller",
          "function": "addItem",
          "class": "CartController",
          "method": "addItem",
          "description": "The method addItem has 11 parameters. Consider reducing the number of parameters to less than 10.",
          "rule": "ExcessiveParameterList",
          "ruleSet": "Code Size Rules",
          "externalInfoUrl": "https://phpmd.org/rules/codesize.html#excessiveparameterlist",
          "priority": 3
        },
        {
          "beginLine": 20,
          "endLine": 20,
          "beginColumn": 9,
          "endColumn": 11,
          "description": "Avoid variables with short names like $id. Configured minimum length is 3.",
          "rule": "ShortVariable",
          "ruleSet": "Naming Rules",
          "priority": 1
        }
      ]
    }
  ]
}`
